package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/lifevault/internal/client/models"
	"github.com/dmitrijs2005/lifevault/internal/common"
)

const moneyUsage = "money [in | out | edit <id> | rm <id>]"

// Money shows the overview and recent transactions or runs a money
// subcommand.
func (a *App) Money(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return a.listMoney(ctx)
	}
	rest := args[1:]
	switch args[0] {
	case "in", "income":
		return a.addTransaction(ctx, models.Income, rest)
	case "out", "expense":
		return a.addTransaction(ctx, models.Expense, rest)
	case "edit":
		return a.editTransaction(ctx, rest)
	case "rm", "delete":
		return a.deleteTransaction(ctx, rest)
	}
	return usageError(moneyUsage)
}

func (a *App) listMoney(ctx context.Context) error {
	cur, err := a.vault.Settings.Currency(ctx)
	if err != nil {
		return err
	}
	ov, err := a.vault.Transactions.Overview(ctx, a.now().In(a.loc))
	if err != nil {
		return err
	}

	money := func(v float64) string { return models.FormatMoney(v, cur) }
	a.println(Heading.Sprint("Balance: ") + money(ov.All.Balance()))
	a.printf("Today:     in %s  out %s\n", Success.Sprint(money(ov.Today.Income)), Error.Sprint(money(ov.Today.Expense)))
	a.printf("This week: in %s  out %s  net %s\n",
		Success.Sprint(money(ov.Week.Income)), Error.Sprint(money(ov.Week.Expense)), money(ov.Week.Balance()))

	txs, err := a.vault.Transactions.List(ctx)
	if err != nil {
		return err
	}
	if len(txs) == 0 {
		a.println("No transactions yet. Add one with 'money in' or 'money out'.")
		return nil
	}
	a.println(Heading.Sprintf("Transactions (%d)", len(txs)))
	for _, tx := range txs {
		amount := Success.Sprint("+" + money(tx.Amount))
		if tx.Kind == models.Expense {
			amount = Error.Sprint("-" + money(tx.Amount))
		}
		line := fmt.Sprintf("  #%-4d %s %s %s", tx.ID, formatDate(tx.Date, a.loc), amount, tx.Category)
		if tx.Notes != "" {
			line += " " + Muted.Sprint(tx.Notes)
		}
		a.println(line)
	}
	return nil
}

func (a *App) addTransaction(ctx context.Context, kind models.TransactionKind, args []string) error {
	var (
		amountText string
		err        error
	)
	if len(args) > 0 {
		amountText = args[0]
	} else if amountText, err = a.ask("Amount"); err != nil {
		return err
	}
	amount, err := parseAmount(amountText)
	if err != nil {
		return err
	}

	category, err := a.ask("Category")
	if err != nil {
		return err
	}
	notes, err := a.ask("Notes (optional)")
	if err != nil {
		return err
	}
	dateText, err := a.ask("Date (YYYY-MM-DD, empty for now)")
	if err != nil {
		return err
	}
	var date time.Time
	if dateText != "" {
		if date, err = parseDate(dateText, a.now(), a.loc); err != nil {
			return err
		}
	}

	tx, err := a.vault.Transactions.Add(ctx, models.Transaction{
		Kind:     kind,
		Amount:   amount,
		Category: category,
		Notes:    notes,
		Date:     date,
	})
	if err != nil {
		return err
	}
	a.println(Success.Sprintf("Added %s #%d.", kind, tx.ID))
	return nil
}

func (a *App) findTransaction(ctx context.Context, id int64) (*models.Transaction, error) {
	txs, err := a.vault.Transactions.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, tx := range txs {
		if tx.ID == id {
			return &tx, nil
		}
	}
	return nil, fmt.Errorf("transaction #%d: %w", id, common.ErrNotFound)
}

func (a *App) editTransaction(ctx context.Context, args []string) error {
	id, err := parseID(args, "money edit <id>")
	if err != nil {
		return err
	}
	cur, err := a.findTransaction(ctx, id)
	if err != nil {
		return err
	}

	amountText, err := a.askDefault("Amount", strconv.FormatFloat(cur.Amount, 'f', -1, 64))
	if err != nil {
		return err
	}
	amount, err := parseAmount(amountText)
	if err != nil {
		return err
	}
	category, err := a.askDefault("Category", cur.Category)
	if err != nil {
		return err
	}
	notes, err := a.askDefault("Notes", cur.Notes)
	if err != nil {
		return err
	}

	patch := models.TransactionPatch{Amount: &amount, Category: &category, Notes: &notes}
	if _, err := a.vault.Transactions.Update(ctx, id, patch); err != nil {
		return err
	}
	a.println(Success.Sprintf("Transaction #%d updated.", id))
	return nil
}

func (a *App) deleteTransaction(ctx context.Context, args []string) error {
	id, err := parseID(args, "money rm <id>")
	if err != nil {
		return err
	}
	if err := a.vault.Transactions.Delete(ctx, id); err != nil {
		return err
	}
	a.printDeleted("Transaction", id)
	return nil
}
