package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/matsen/tablebot/internal/render"
	"github.com/matsen/tablebot/internal/session"
	"github.com/matsen/tablebot/internal/table"
)

// register installs every command in help order.
func (d *Dispatcher) register() {
	d.add(&command{name: "newtable", usage: "newtable <name>", description: "Create a new table", minArgs: 1, run: d.newTable})
	d.add(&command{name: "addcol", usage: "addcol <table> <column_name>", description: "Add a column", minArgs: 2, run: d.addColumn})
	d.add(&command{name: "addrow", usage: "addrow <table> <val1> <val2> ...", description: "Add a row. \nUse \"quotes\" for spaces. Example: " + d.prefix + "addrow students \"Alice Smith\" 20", minArgs: 1, run: d.addRow})
	d.add(&command{name: "showtable", usage: "showtable <table>", description: "Show the table", minArgs: 1, run: d.showTable})
	d.add(&command{name: "editcell", usage: "editcell <table> <row> <col> <value>", description: "Edit a specific cell", minArgs: 4, run: d.editCell})
	d.add(&command{name: "editrow", usage: "editrow <table> <row> <val1> <val2> ...", description: "Edit an entire row", minArgs: 2, run: d.editRow})
	d.add(&command{name: "editcol", usage: "editcol <table> <old_col> <new_col>", description: "Rename a column", minArgs: 3, run: d.editColumn})
	d.add(&command{name: "cleartable", usage: "cleartable <table>", description: "Clear all rows (keep columns)", minArgs: 1, run: d.clearTable})
	d.add(&command{name: "delrow", usage: "delrow <table> <row_number>", description: "Delete a row", minArgs: 2, run: d.deleteRow})
	d.add(&command{name: "delcol", usage: "delcol <table> <column_name>", description: "Delete a column", minArgs: 2, run: d.deleteColumn})
	d.add(&command{name: "viewtable", usage: "viewtable", description: "View list of your server's tables", run: d.viewTables})
	d.add(&command{name: "deletetable", usage: "deletetable <table>", description: "Delete the entire table", minArgs: 1, run: d.deleteTable})
	d.add(&command{name: "commands", usage: "commands", description: "Show this list", run: d.showHelp})
}

// rest joins the arguments from i on, for free-text values like column names.
func rest(args []string, i int) string {
	return strings.Join(args[i:], " ")
}

func (d *Dispatcher) handle(ctx context.Context, c *call) (*table.Handle, error) {
	return d.registry.Get(ctx, c.msg.ScopeID, c.args[0])
}

func (d *Dispatcher) newTable(ctx context.Context, c *call) error {
	name := c.args[0]
	if err := d.registry.Create(ctx, c.msg.ScopeID, name); err != nil {
		return err
	}
	d.logger.Info("table created", "scope", c.msg.ScopeID, "table", name, "user", c.msg.AuthorID)
	return d.reply(ctx, c.ch, fmt.Sprintf("Table '%s' created.", name))
}

func (d *Dispatcher) addColumn(ctx context.Context, c *call) error {
	h, err := d.handle(ctx, c)
	if err != nil {
		return err
	}
	column := rest(c.args, 1)
	if err := h.AddColumn(ctx, column); err != nil {
		return err
	}
	return d.reply(ctx, c.ch, fmt.Sprintf("Column '%s' added to '%s'.", column, h.Name()))
}

func (d *Dispatcher) addRow(ctx context.Context, c *call) error {
	h, err := d.handle(ctx, c)
	if err != nil {
		return err
	}
	if err := h.AddRow(ctx, c.args[1:]); err != nil {
		return err
	}
	return d.reply(ctx, c.ch, fmt.Sprintf("✅ Row added to '%s'.", h.Name()))
}

func (d *Dispatcher) showTable(ctx context.Context, c *call) error {
	h, err := d.handle(ctx, c)
	if err != nil {
		return err
	}
	snap, err := h.Snapshot(ctx)
	if err != nil {
		return err
	}
	if len(snap.Columns) == 0 {
		return d.reply(ctx, c.ch, msgNoColumns)
	}
	if _, err := d.sessions.ShowPager(ctx, c.ch, c.msg.AuthorID, session.NewPager(h.Name(), snap)); err != nil {
		if errors.Is(err, render.ErrTooWide) {
			return d.reply(ctx, c.ch, msgTooWide)
		}
		return &sendError{err: err}
	}
	return nil
}

func (d *Dispatcher) editCell(ctx context.Context, c *call) error {
	h, err := d.handle(ctx, c)
	if err != nil {
		return err
	}
	row, ok := parseRow(c.args[1])
	if !ok {
		return d.reply(ctx, c.ch, msgInvalidRow)
	}
	column, value := c.args[2], rest(c.args, 3)
	if err := h.EditCell(ctx, row, column, value); err != nil {
		return err
	}
	return d.reply(ctx, c.ch, fmt.Sprintf("Updated `%s` in row %d to `%s`.", column, row, value))
}

func (d *Dispatcher) editRow(ctx context.Context, c *call) error {
	h, err := d.handle(ctx, c)
	if err != nil {
		return err
	}
	row, ok := parseRow(c.args[1])
	if !ok {
		return d.reply(ctx, c.ch, msgInvalidRow)
	}
	if err := h.EditRow(ctx, row, c.args[2:]); err != nil {
		return err
	}
	return d.reply(ctx, c.ch, fmt.Sprintf("Row %d updated successfully.", row))
}

func (d *Dispatcher) editColumn(ctx context.Context, c *call) error {
	h, err := d.handle(ctx, c)
	if err != nil {
		return err
	}
	oldName, newName := c.args[1], c.args[2]
	if err := h.RenameColumn(ctx, oldName, newName); err != nil {
		return err
	}
	return d.reply(ctx, c.ch, fmt.Sprintf("Renamed column '%s' to '%s'.", oldName, newName))
}

func (d *Dispatcher) clearTable(ctx context.Context, c *call) error {
	h, err := d.handle(ctx, c)
	if err != nil {
		return err
	}
	if err := h.Clear(ctx); err != nil {
		return err
	}
	d.logger.Info("table cleared", "scope", c.msg.ScopeID, "table", h.Name(), "user", c.msg.AuthorID)
	d.audit(ctx, fmt.Sprintf("🧹 Table `%s` in server %s was cleared by <@%s>.", h.Name(), c.msg.ScopeID, c.msg.AuthorID))
	return d.reply(ctx, c.ch, fmt.Sprintf("✅ All rows in '%s' have been cleared.", h.Name()))
}

func (d *Dispatcher) deleteRow(ctx context.Context, c *call) error {
	h, err := d.handle(ctx, c)
	if err != nil {
		return err
	}
	row, ok := parseRow(c.args[1])
	if !ok {
		return d.reply(ctx, c.ch, msgInvalidRow)
	}
	removed, err := h.RemoveRow(ctx, row)
	if err != nil {
		return err
	}
	return d.reply(ctx, c.ch, fmt.Sprintf("Deleted row %d: %s", row, formatRow(removed)))
}

func (d *Dispatcher) deleteColumn(ctx context.Context, c *call) error {
	h, err := d.handle(ctx, c)
	if err != nil {
		return err
	}
	column := rest(c.args, 1)
	if err := h.RemoveColumn(ctx, column); err != nil {
		return err
	}
	return d.reply(ctx, c.ch, fmt.Sprintf("Deleted column '%s'.", column))
}

func (d *Dispatcher) viewTables(ctx context.Context, c *call) error {
	names, err := d.registry.List(ctx, c.msg.ScopeID)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return d.reply(ctx, c.ch, msgNoTables)
	}
	return d.reply(ctx, c.ch, tableList(names))
}

// deleteTable asks for confirmation and deletes only on an explicit yes.
func (d *Dispatcher) deleteTable(ctx context.Context, c *call) error {
	h, err := d.handle(ctx, c)
	if err != nil {
		return err
	}
	scope, name, user := c.msg.ScopeID, h.Name(), c.msg.AuthorID

	prompt := fmt.Sprintf("⚠️ Are you sure you want to permanently delete the table `%s`?\nReact with %s to confirm or %s to cancel.",
		name, session.EmojiConfirm, session.EmojiCancel)
	action := func(ctx context.Context) error {
		return d.registry.Delete(ctx, scope, name)
	}
	onResolve := func(ctx context.Context, outcome session.Outcome, err error) {
		var msg string
		switch outcome {
		case session.Confirmed:
			if err != nil {
				msg = d.errorMessage("deletetable", err)
				break
			}
			notice := fmt.Sprintf("🗑️ Table `%s` in server %s was deleted by <@%s>.", name, scope, user)
			if id, ok := session.IDFromContext(ctx); ok {
				notice += fmt.Sprintf(" (confirmation %s)", id)
			}
			d.logger.Info("table deleted", "scope", scope, "table", name, "user", user)
			d.audit(ctx, notice)
			msg = fmt.Sprintf("🗑️ Table `%s` has been deleted.", name)
		case session.Cancelled:
			msg = msgCancelled
		case session.TimedOut:
			msg = msgTimedOut
		default:
			return
		}
		if err := d.reply(ctx, c.ch, msg); err != nil {
			d.logger.Warn("reply failed", "command", "deletetable", "error", err)
		}
	}

	if _, err := d.sessions.AskConfirm(ctx, c.ch, user, prompt, action, onResolve); err != nil {
		return &sendError{err: err}
	}
	return nil
}

func (d *Dispatcher) showHelp(ctx context.Context, c *call) error {
	if err := c.ch.SendHelp(ctx, d.HelpText()); err != nil {
		return &sendError{err: err}
	}
	return nil
}
