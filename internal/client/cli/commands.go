package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/onionkeep/onionkeep/internal/client"
)

func (a *App) Pair(ctx context.Context) error {
	if a.isPaired() {
		fmt.Println("Already paired. Revoke first to pair again.")
		return nil
	}

	name, err := GetSimpleText(a.reader, "Device name", os.Stdout)
	if err != nil {
		return err
	}

	session, code, err := client.Pair(ctx, a.config.EndpointAddr, name)
	if err != nil {
		fmt.Printf("Pairing failed: %v\n", err)
		return err
	}

	if err := session.Save(a.config.SessionFile); err != nil {
		fmt.Printf("Failed to save session: %v\n", err)
		return err
	}

	a.session = session
	a.api = client.New(session)

	fmt.Printf("Paired as device %s\n", session.DeviceID)
	fmt.Printf("Verification code: %s\n", code)
	fmt.Println("Compare the code with the one in the server log before storing secrets.")
	return nil
}

func (a *App) Status(ctx context.Context) error {
	if err := client.Status(ctx, a.config.EndpointAddr); err != nil {
		fmt.Printf("Server unreachable: %v\n", err)
		return err
	}
	fmt.Println("Server is up.")
	return nil
}

func (a *App) List(ctx context.Context) error {
	records, err := a.api.List(ctx)
	if err != nil {
		fmt.Printf("List failed: %v\n", err)
		return err
	}

	if len(records) == 0 {
		fmt.Println("Vault is empty.")
		return nil
	}
	for _, r := range records {
		fmt.Printf("%s  %s  (updated %s)\n", r.ID, r.Label, r.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func (a *App) Add(ctx context.Context) error {
	label, err := GetSimpleText(a.reader, "Label", os.Stdout)
	if err != nil {
		return err
	}

	value, err := GetSecret("Secret", os.Stdout)
	if err != nil {
		return err
	}

	id, err := a.api.Add(ctx, label, value)
	if err != nil {
		fmt.Printf("Add failed: %v\n", err)
		return err
	}

	fmt.Printf("Stored as %s\n", id)
	return nil
}

func (a *App) Show(ctx context.Context) error {
	id, err := GetSimpleText(a.reader, "Record id", os.Stdout)
	if err != nil {
		return err
	}

	value, err := a.api.Get(ctx, id)
	if err != nil {
		fmt.Printf("Show failed: %v\n", err)
		return err
	}

	fmt.Println(value)
	return nil
}

func (a *App) Update(ctx context.Context) error {
	id, err := GetSimpleText(a.reader, "Record id", os.Stdout)
	if err != nil {
		return err
	}

	value, err := GetSecret("New secret", os.Stdout)
	if err != nil {
		return err
	}

	if err := a.api.Update(ctx, id, value); err != nil {
		fmt.Printf("Update failed: %v\n", err)
		return err
	}

	fmt.Println("Updated.")
	return nil
}

func (a *App) Delete(ctx context.Context) error {
	id, err := GetSimpleText(a.reader, "Record id", os.Stdout)
	if err != nil {
		return err
	}

	if err := a.api.Delete(ctx, id); err != nil {
		fmt.Printf("Delete failed: %v\n", err)
		return err
	}

	fmt.Println("Deleted.")
	return nil
}

func (a *App) Devices(ctx context.Context) error {
	list, err := a.api.Devices(ctx)
	if err != nil {
		fmt.Printf("Devices failed: %v\n", err)
		return err
	}

	for _, d := range list {
		marker := ""
		if d.ID == a.session.DeviceID {
			marker = "  (this device)"
		}
		fmt.Printf("%s  %s%s\n", d.ID, d.Name, marker)
	}
	return nil
}

func (a *App) Rename(ctx context.Context) error {
	name, err := GetSimpleText(a.reader, "New device name", os.Stdout)
	if err != nil {
		return err
	}

	if err := a.api.Rename(ctx, name); err != nil {
		fmt.Printf("Rename failed: %v\n", err)
		return err
	}

	fmt.Println("Renamed.")
	return nil
}

// Revoke unpairs this device and removes its secrets on the server. The
// session file is deleted so the next start offers pairing again.
func (a *App) Revoke(ctx context.Context) error {
	answer, err := GetSimpleText(a.reader, "This deletes all secrets stored by this device. Type 'yes' to continue", os.Stdout)
	if err != nil {
		return err
	}
	if answer != "yes" {
		fmt.Println("Aborted.")
		return nil
	}

	if err := a.api.Revoke(ctx); err != nil {
		fmt.Printf("Revoke failed: %v\n", err)
		return err
	}

	if err := os.Remove(a.config.SessionFile); err != nil && !os.IsNotExist(err) {
		fmt.Printf("Failed to remove session file: %v\n", err)
	}

	a.session = nil
	a.api = nil

	fmt.Println("Device revoked.")
	return nil
}
