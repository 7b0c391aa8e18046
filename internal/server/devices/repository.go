package devices

import "context"

type Repository interface {
	Get(ctx context.Context, id string) (*Device, error)
	Save(ctx context.Context, device *Device) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*Device, error)
}
