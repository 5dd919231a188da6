package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/lifevault/internal/client/models"
	"github.com/dmitrijs2005/lifevault/internal/common"
)

const contactsUsage = "contacts [find <text> | add | edit <id> | rm <id>]"

func (a *App) Contacts(ctx context.Context, args []string) error {
	if len(args) == 0 {
		items, err := a.vault.Contacts.List(ctx)
		if err != nil {
			return err
		}
		a.printContacts(items)
		return nil
	}
	rest := args[1:]
	switch args[0] {
	case "find", "search":
		items, err := a.vault.Contacts.Search(ctx, strings.Join(rest, " "))
		if err != nil {
			return err
		}
		a.printContacts(items)
		return nil
	case "add":
		return a.addContact(ctx, rest)
	case "edit":
		return a.editContact(ctx, rest)
	case "rm", "delete":
		return a.deleteContact(ctx, rest)
	}
	return usageError(contactsUsage)
}

func (a *App) printContacts(items []models.Contact) {
	if len(items) == 0 {
		a.println("No contacts found.")
		return
	}
	a.println(Heading.Sprintf("Contacts (%d)", len(items)))
	for _, c := range items {
		line := fmt.Sprintf("  #%-4d %s", c.ID, c.Name)
		if c.Phone != "" {
			line += "  " + c.Phone
		}
		if c.Role != "" {
			line += " " + Muted.Sprint(c.Role)
		}
		a.println(line)
		if c.Notes != "" {
			a.println("        " + c.Notes)
		}
	}
}

func (a *App) addContact(ctx context.Context, args []string) error {
	name := strings.Join(args, " ")
	if name == "" {
		var err error
		if name, err = a.ask("Name"); err != nil {
			return err
		}
	}
	phone, err := a.ask("Phone (optional)")
	if err != nil {
		return err
	}
	role, err := a.ask("Role (optional)")
	if err != nil {
		return err
	}
	notes, err := a.ask("Notes (optional)")
	if err != nil {
		return err
	}

	c, err := a.vault.Contacts.Add(ctx, models.Contact{Name: name, Phone: phone, Role: role, Notes: notes})
	if err != nil {
		return err
	}
	a.println(Success.Sprintf("Added contact #%d.", c.ID))
	return nil
}

func (a *App) editContact(ctx context.Context, args []string) error {
	id, err := parseID(args, "contacts edit <id>")
	if err != nil {
		return err
	}
	items, err := a.vault.Contacts.List(ctx)
	if err != nil {
		return err
	}
	var cur *models.Contact
	for i := range items {
		if items[i].ID == id {
			cur = &items[i]
			break
		}
	}
	if cur == nil {
		return fmt.Errorf("contact #%d: %w", id, common.ErrNotFound)
	}

	var patch models.ContactPatch
	for _, f := range []struct {
		prompt string
		value  string
		dst    **string
	}{
		{"Name", cur.Name, &patch.Name},
		{"Phone", cur.Phone, &patch.Phone},
		{"Role", cur.Role, &patch.Role},
		{"Notes", cur.Notes, &patch.Notes},
	} {
		v, err := a.askDefault(f.prompt, f.value)
		if err != nil {
			return err
		}
		*f.dst = &v
	}

	if _, err := a.vault.Contacts.Update(ctx, id, patch); err != nil {
		return err
	}
	a.println(Success.Sprintf("Contact #%d updated.", id))
	return nil
}

func (a *App) deleteContact(ctx context.Context, args []string) error {
	id, err := parseID(args, "contacts rm <id>")
	if err != nil {
		return err
	}
	if err := a.vault.Contacts.Delete(ctx, id); err != nil {
		return err
	}
	a.printDeleted("Contact", id)
	return nil
}
