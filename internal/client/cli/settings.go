package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/lifevault/internal/client/models"
)

// Undo restores the most recently deleted item if the window is still open.
func (a *App) Undo(ctx context.Context, _ []string) error {
	d, err := a.vault.Undo.Undo(ctx)
	if err != nil {
		return err
	}
	a.println(Success.Sprintf("Restored %s #%d.", d.Collection, d.OriginalID))
	return nil
}

// Currency shows the current currency and the choices, or sets it.
func (a *App) Currency(ctx context.Context, args []string) error {
	if len(args) > 0 {
		c, err := a.vault.Settings.SetCurrency(ctx, args[0])
		if err != nil {
			return err
		}
		a.println(Success.Sprintf("Currency set to %s (%s).", c.Name, c.Symbol))
		return nil
	}

	cur, err := a.vault.Settings.Currency(ctx)
	if err != nil {
		return err
	}
	a.println(Heading.Sprintf("Currency: %s %s", cur.Code, cur.Symbol))
	for _, c := range models.Currencies {
		marker := " "
		if c.Code == cur.Code {
			marker = "*"
		}
		a.println(fmt.Sprintf(" %s %s  %-4s %s", marker, c.Code, c.Symbol, Muted.Sprint(c.Name+", "+c.Country)))
	}
	return nil
}
