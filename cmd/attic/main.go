package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kstrand/attic/internal/csvio"
	"github.com/kstrand/attic/internal/engine"
	"github.com/kstrand/attic/internal/history"
	"github.com/kstrand/attic/internal/intent"
	atticmcp "github.com/kstrand/attic/internal/mcp"
	"github.com/kstrand/attic/internal/session"
	"github.com/kstrand/attic/internal/similarity"
	"github.com/kstrand/attic/internal/store"
	"github.com/kstrand/attic/internal/tree"
	"github.com/kstrand/attic/internal/ui"
)

// Set via ldflags at build time
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func buildVersion() string {
	if commit == "none" {
		return version
	}
	return fmt.Sprintf("%s (%s, %s)", version, commit, date)
}

func main() {
	var noColor bool

	rootCmd := &cobra.Command{
		Use:   "attic",
		Short: "attic — track what lives where in your house",
		Long:  "A local CLI that keeps a floor → room → container inventory of your home, with plain-language storing, fuzzy duplicate detection, and undo.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			ui.Init(noColor)
		},
	}

	rootCmd.Version = buildVersion()
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	// Command groups
	rootCmd.AddGroup(
		&cobra.Group{ID: "core", Title: "Core Commands:"},
		&cobra.Group{ID: "edit", Title: "Manual Edits:"},
		&cobra.Group{ID: "data", Title: "Data Commands:"},
		&cobra.Group{ID: "config", Title: "Configuration:"},
	)

	for _, c := range []*cobra.Command{initCmd(), tellCmd(), lsCmd(), findCmd(), undoCmd()} {
		c.GroupID = "core"
		rootCmd.AddCommand(c)
	}
	for _, c := range []*cobra.Command{addCmd(), rmCmd(), mvCmd(), renameCmd(), editCmd(), clearCmd()} {
		c.GroupID = "edit"
		rootCmd.AddCommand(c)
	}
	for _, c := range []*cobra.Command{dupesCmd(), historyCmd(), deletedCmd(), exportCmd(), importCmd()} {
		c.GroupID = "data"
		rootCmd.AddCommand(c)
	}
	for _, c := range []*cobra.Command{configCmd(), mcpServeCmd()} {
		c.GroupID = "config"
		rootCmd.AddCommand(c)
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func initCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:     "init",
		Short:   "Initialize the ATTIC_HOME directory",
		Long:    "Create the ATTIC_HOME directory (~/.attic by default) with config.yaml and an empty default house. Run this once before anything else.",
		Example: "  attic init\n  attic init --force",
		RunE: func(cmd *cobra.Command, args []string) error {
			home := store.Home()
			if err := store.Init(home, force); err != nil {
				return err
			}
			ui.LogoWithTagline("know what lives where")
			ui.Success("attic initialized")
			ui.Detail("Home:", home)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Reinitialize even if ATTIC_HOME already exists")
	return cmd
}

// app bundles the opened store and engine for one command invocation.
type app struct {
	env *store.Env
	st  store.Store
	eng *engine.Engine
}

func openApp() (*app, error) {
	env, err := store.LoadEnv(store.Home())
	if err != nil {
		return nil, fmt.Errorf("attic not initialized — run 'attic init' first: %w", err)
	}
	st, err := env.Open()
	if err != nil {
		return nil, err
	}
	state, err := st.Load(context.Background())
	if err != nil {
		st.Close()
		return nil, err
	}
	sess := session.Restore(state)
	resolver := intent.NewProxyResolver(env.Config.Proxy.URL, env.Config.Proxy.APIKey)
	return &app{env: env, st: st, eng: engine.New(sess, resolver)}, nil
}

func (a *app) save() error {
	ctx := context.Background()
	if err := a.st.Save(ctx, a.eng.Session().Snapshot()); err != nil {
		return err
	}
	return a.st.Flush(ctx)
}

func (a *app) close() {
	if err := a.st.Close(); err != nil {
		ui.Error(fmt.Sprintf("Failed to close store: %v", err))
	}
}

func tellCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tell <text>",
		Short: "Store, remove, or search items in plain language",
		Long:  "Send a plain-language request to the inventory: where you put something, what to take out, or a question about what's where. Needs proxy.url configured.",
		Example: `  attic tell "put 3 winter jackets in the attic storage room"
  attic tell "I took the drill out of the garage"
  attic tell "where are the christmas decorations?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.close()

			if a.env.Config.Proxy.URL == "" {
				return fmt.Errorf("no proxy configured — run 'attic config set proxy.url <url>' or set ATTIC_PROXY_URL")
			}

			text := strings.Join(args, " ")
			spin := ui.NewSpinner("Thinking...")
			outcome, err := a.eng.Submit(cmd.Context(), text)
			spin.Stop()
			if err != nil {
				if errors.Is(err, engine.ErrSuperseded) {
					return nil
				}
				return err
			}

			switch outcome.Kind {
			case engine.OutcomeSearch:
				ui.RenderMarkdown(outcome.Answer)
				return nil
			case engine.OutcomePending:
				outcome, err = resolveDuplicatesInteractive(a.eng, outcome.Pending)
				if err != nil {
					return err
				}
				if outcome == nil {
					ui.Info("Cancelled; nothing stored.")
					return nil
				}
			}

			ui.Success(outcome.Message)
			return a.save()
		},
	}
	return cmd
}

// resolveDuplicatesInteractive walks the held batch item by item,
// asking the user how to handle each duplicate candidate. Returns nil
// when the user cancels the whole batch.
func resolveDuplicatesInteractive(eng *engine.Engine, pending *engine.PendingStore) (*engine.Outcome, error) {
	choices := make([]engine.Choice, 0, len(pending.Items))
	for _, item := range pending.Items {
		if len(item.Duplicates) == 0 {
			choices = append(choices, engine.Choice{Action: engine.ChoiceAdd})
			continue
		}

		ui.Warning(fmt.Sprintf("%q looks similar to something already stored:", item.Name))
		for _, d := range item.Duplicates {
			qty := ""
			if d.Item.Quantity != nil {
				qty = fmt.Sprintf(" ×%d", *d.Item.Quantity)
			}
			ui.Detail("•", fmt.Sprintf("%s%s", d.Path, qty))
		}

		options := []ui.Option{
			{Label: "Store as new item", Desc: item.TargetPath},
			{Label: "Skip this item"},
		}
		type mapped struct {
			action engine.ChoiceAction
			target string
		}
		actions := []mapped{{engine.ChoiceAdd, ""}, {engine.ChoiceSkip, ""}}
		for _, d := range item.Duplicates {
			options = append(options, ui.Option{Label: "Add quantity to existing", Desc: d.Path})
			actions = append(actions, mapped{engine.ChoiceAddToExisting, d.Item.ID})
			options = append(options, ui.Option{Label: "Move existing here", Desc: d.Path})
			actions = append(actions, mapped{engine.ChoiceMoveHere, d.Item.ID})
		}

		idx, err := ui.Select(fmt.Sprintf("How should %q be stored?", item.Name), options)
		if err != nil {
			return nil, err
		}
		if idx < 0 {
			eng.CancelPending()
			return nil, nil
		}
		choices = append(choices, engine.Choice{Action: actions[idx].action, TargetID: actions[idx].target})
	}

	return eng.ResolvePending(choices)
}

func lsCmd() *cobra.Command {
	var showIDs bool
	var itemsOnly bool
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "Show the house tree or list all items",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.close()

			t := a.eng.Tree()
			if itemsOnly {
				items := tree.Flatten(t)
				if len(items) == 0 {
					ui.EmptyState("No items stored yet.")
					return nil
				}
				var rows [][]string
				for _, n := range items {
					qty := "-"
					if n.Quantity != nil {
						qty = strconv.Itoa(*n.Quantity)
					}
					cat := ui.Colored(tree.CategoryColors[n.Category], string(n.Category))
					row := []string{n.Name, qty, cat, tree.Breadcrumb(t, n.ID, "")}
					if showIDs {
						row = append([]string{n.ID}, row...)
					}
					rows = append(rows, row)
				}
				headers := []string{"NAME", "QTY", "CATEGORY", "PATH"}
				if showIDs {
					headers = append([]string{"ID"}, headers...)
				}
				ui.Table(headers, rows)
				return nil
			}

			printTree(t, 0, showIDs)
			fmt.Printf("\n%s\n", ui.Dim(fmt.Sprintf("%d items total", tree.CountItems(t))))
			return nil
		},
	}
	cmd.Flags().BoolVar(&showIDs, "ids", false, "Show node ids")
	cmd.Flags().BoolVar(&itemsOnly, "items", false, "Flat item table instead of the tree")
	return cmd
}

func printTree(n *tree.Node, depth int, showIDs bool) {
	indent := strings.Repeat("  ", depth)
	label := n.Name
	switch {
	case n.IsItem():
		if n.Quantity != nil {
			label += ui.Dim(fmt.Sprintf(" ×%d", *n.Quantity))
		}
		if n.Category != "" && n.Category != tree.CategoryMisc {
			label += " " + ui.Colored(tree.CategoryColors[n.Category], "["+string(n.Category)+"]")
		}
		label = "- " + label
	case n.Kind == tree.KindHouse:
		label = ui.Bold(label)
	default:
		label = ui.Bold(label) + " " + ui.Dim("("+string(n.Kind)+")")
	}
	if showIDs {
		label += " " + ui.Dim(n.ID)
	}
	fmt.Println(indent + label)
	for _, c := range n.Children {
		printTree(c, depth+1, showIDs)
	}
}

func findCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "find <name>",
		Short:   "Find items with names similar to the given one",
		Example: "  attic find battery",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.close()

			name := strings.Join(args, " ")
			matches := similarity.FindSimilarItems(a.eng.Tree(), name, nil)
			if len(matches) == 0 {
				ui.EmptyState(fmt.Sprintf("Nothing similar to %q found.", name))
				return nil
			}
			var rows [][]string
			for _, m := range matches {
				qty := "-"
				if m.Item.Quantity != nil {
					qty = strconv.Itoa(*m.Item.Quantity)
				}
				// Exact name matches stand out from the merely similar.
				display := m.Item.Name
				if strings.EqualFold(m.Item.Name, name) {
					display = ui.Green(display)
				}
				rows = append(rows, []string{m.Item.ID, display, qty, m.Path})
			}
			ui.Table([]string{"ID", "NAME", "QTY", "PATH"}, rows)
			return nil
		},
	}
}

func addCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an item or container at a known location",
	}
	cmd.AddCommand(addItemCmd())
	cmd.AddCommand(addContainerCmd())
	return cmd
}

func addItemCmd() *cobra.Command {
	var parentID, category string
	var qty int
	cmd := &cobra.Command{
		Use:     "item <name>",
		Short:   "Add an item under a room or container",
		Example: `  attic add item "ski boots" --in <room-id> --qty 2 --category sports`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.close()

			name := strings.Join(args, " ")
			var quantity *int
			if cmd.Flags().Changed("qty") {
				quantity = &qty
			}
			n, err := a.eng.AddItem(parentID, name, quantity, tree.NormalizeCategory(category))
			if err != nil {
				return err
			}
			ui.Success(fmt.Sprintf("Added %q", name))
			ui.Detail("Path:", tree.Breadcrumb(a.eng.Tree(), n.ID, name))
			ui.Detail("ID:  ", n.ID)
			return a.save()
		},
	}
	cmd.Flags().StringVar(&parentID, "in", "", "Parent room or container id")
	cmd.Flags().IntVar(&qty, "qty", 0, "Quantity (omit for unknown)")
	cmd.Flags().StringVar(&category, "category", "", "Item category")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

func addContainerCmd() *cobra.Command {
	var parentID string
	cmd := &cobra.Command{
		Use:     "container <name>",
		Short:   "Add a container under a room or another container",
		Example: `  attic add container "blue bin" --in <room-id>`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.close()

			name := strings.Join(args, " ")
			n, err := a.eng.AddContainer(parentID, name)
			if err != nil {
				return err
			}
			ui.Success(fmt.Sprintf("Added container %q", name))
			ui.Detail("Path:", tree.Breadcrumb(a.eng.Tree(), n.ID, name))
			ui.Detail("ID:  ", n.ID)
			return a.save()
		},
	}
	cmd.Flags().StringVar(&parentID, "in", "", "Parent room or container id")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

func rmCmd() *cobra.Command {
	var keepChildren bool
	var force bool
	cmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a node (items go to the deleted log)",
		Long:  "Delete a node by id. Deleting a room or container removes everything inside it unless --keep-children moves the contents up a level. Items land in the deleted log and the deletion is undoable.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.close()

			n := tree.Find(a.eng.Tree(), args[0])
			if n == nil {
				return fmt.Errorf("node not found: %s", args[0])
			}
			if !force {
				detail := ""
				if count := tree.CountItems(n); count > 0 && !n.IsItem() {
					detail = fmt.Sprintf(" (%d items inside)", count)
				}
				proceed, err := ui.Confirm(fmt.Sprintf("Delete %q%s?", n.Name, detail))
				if err != nil {
					return err
				}
				if !proceed {
					ui.Info("Cancelled.")
					return nil
				}
			}
			if err := a.eng.Delete(args[0], keepChildren); err != nil {
				return err
			}
			ui.Success(fmt.Sprintf("Deleted %q", n.Name))
			return a.save()
		},
	}
	cmd.Flags().BoolVar(&keepChildren, "keep-children", false, "Move children to the parent instead of deleting them")
	cmd.Flags().BoolVar(&force, "force", false, "Skip confirmation prompt")
	return cmd
}

func mvCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "mv <id> <dest-id>",
		Short:   "Move a node under a new parent",
		Example: "  attic mv <item-id> <container-id>",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.close()

			path, err := a.eng.MoveNode(args[0], args[1])
			if err != nil {
				return err
			}
			ui.Success("Moved")
			ui.Detail("Now at:", path)
			return a.save()
		},
	}
}

func renameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <new-name>",
		Short: "Rename a node",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.close()

			name := strings.Join(args[1:], " ")
			if err := a.eng.Rename(args[0], name); err != nil {
				return err
			}
			ui.Success(fmt.Sprintf("Renamed to %q", name))
			return a.save()
		},
	}
}

func editCmd() *cobra.Command {
	var name, category string
	var qty int
	var clearQty bool
	cmd := &cobra.Command{
		Use:     "edit <id>",
		Short:   "Edit an item's name, quantity, or category",
		Example: "  attic edit <id> --qty 5\n  attic edit <id> --name \"hiking boots\" --category sports\n  attic edit <id> --clear-qty",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.close()

			edit := engine.ItemEdit{}
			if cmd.Flags().Changed("name") {
				edit.Name = &name
			}
			if clearQty {
				edit.SetQuantity = true
			} else if cmd.Flags().Changed("qty") {
				edit.Quantity = &qty
				edit.SetQuantity = true
			}
			if cmd.Flags().Changed("category") {
				c := tree.NormalizeCategory(category)
				edit.Category = &c
			}
			if edit.Name == nil && !edit.SetQuantity && edit.Category == nil {
				return fmt.Errorf("nothing to change — pass --name, --qty, --clear-qty, or --category")
			}
			if err := a.eng.EditItem(args[0], edit); err != nil {
				return err
			}
			ui.Success("Updated")
			return a.save()
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().IntVar(&qty, "qty", 0, "New quantity")
	cmd.Flags().BoolVar(&clearQty, "clear-qty", false, "Set quantity to unknown")
	cmd.Flags().StringVar(&category, "category", "", "New category")
	return cmd
}

func undoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "undo",
		Short: "Undo the most recent change",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.close()

			label, ok := a.eng.Undo()
			if !ok {
				ui.Info("Nothing to undo.")
				return nil
			}
			ui.Success(fmt.Sprintf("Undid %s", label))
			ui.Detail("Remaining:", fmt.Sprintf("%d undo steps", a.eng.Session().UndoDepth()))
			return a.save()
		},
	}
}

func historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <id>",
		Short: "Show the event history of a node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.close()

			t := a.eng.Tree()
			n := tree.Find(t, args[0])
			if n == nil {
				return fmt.Errorf("node not found: %s", args[0])
			}
			ui.SectionHeader(n.Name)
			ui.KeyValue("Path:", tree.Breadcrumb(t, n.ID, n.Name))
			if len(n.History) == 0 {
				ui.EmptyState("No recorded events.")
				return nil
			}
			for _, h := range n.History {
				line := string(h.Event)
				if h.From != nil || h.To != nil {
					line += fmt.Sprintf(" (%v → %v)", h.From, h.To)
				}
				ui.Detail(history.RelativeTime(h.Timestamp), line)
			}
			return nil
		},
	}
}

func deletedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deleted",
		Short: "Show recently deleted items",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.close()

			log := a.eng.Tree().DeletedLog
			if len(log) == 0 {
				ui.EmptyState("Nothing in the deleted log.")
				return nil
			}
			var rows [][]string
			for i := len(log) - 1; i >= 0; i-- {
				d := log[i]
				qty := "-"
				if d.Node.Quantity != nil {
					qty = strconv.Itoa(*d.Node.Quantity)
				}
				rows = append(rows, []string{
					ui.Red(d.Node.Name), qty,
					strings.Join(d.ParentPath, " > "),
					history.RelativeTime(d.DeletedAt),
				})
			}
			ui.Table([]string{"NAME", "QTY", "WAS IN", "DELETED"}, rows)
			return nil
		},
	}
}

func dupesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dupes",
		Short: "Scan for and merge likely-duplicate items",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.close()
			return printDuplicateGroups(a.eng)
		},
	}
	cmd.AddCommand(dupesMergeCmd())
	return cmd
}

func printDuplicateGroups(eng *engine.Engine) error {
	groups := eng.ScanDuplicates()
	if len(groups) == 0 {
		ui.EmptyState("No duplicate groups found.")
		return nil
	}
	for i, group := range groups {
		ui.SectionHeader(fmt.Sprintf("Group %d", i+1))
		for _, m := range group {
			qty := ""
			if m.Item.Quantity != nil {
				qty = " " + ui.Yellow(fmt.Sprintf("×%d", *m.Item.Quantity))
			}
			ui.Detail(m.Item.ID, fmt.Sprintf("%s%s", m.Path, qty))
		}
	}
	ui.Info(fmt.Sprintf("%d group(s). Merge one with 'attic dupes merge <group-number>'.", len(groups)))
	return nil
}

func dupesMergeCmd() *cobra.Command {
	var keepID string
	cmd := &cobra.Command{
		Use:     "merge <group-number>",
		Short:   "Merge a duplicate group into one item",
		Long:    "Merge the numbered group from 'attic dupes'. Numeric quantities are summed onto the kept item; the rest go to the deleted log. Undoable.",
		Example: "  attic dupes merge 1\n  attic dupes merge 2 --keep <item-id>",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.close()

			num, err := strconv.Atoi(args[0])
			if err != nil || num < 1 {
				return fmt.Errorf("invalid group number: %s", args[0])
			}
			groups := a.eng.ScanDuplicates()
			if num > len(groups) {
				return fmt.Errorf("group %d not found (%d groups)", num, len(groups))
			}
			group := groups[num-1]

			keep := keepID
			if keep == "" {
				options := make([]ui.Option, len(group))
				for i, m := range group {
					options[i] = ui.Option{Label: m.Item.Name, Desc: m.Path}
				}
				idx, err := ui.Select("Which item should survive the merge?", options)
				if err != nil {
					return err
				}
				if idx < 0 {
					ui.Info("Cancelled.")
					return nil
				}
				keep = group[idx].Item.ID
			}

			outcome, err := a.eng.MergeGroup(group, keep)
			if err != nil {
				return err
			}
			ui.Success(outcome.Message)
			return a.save()
		},
	}
	cmd.Flags().StringVar(&keepID, "keep", "", "Id of the item to keep (prompts if omitted)")
	return cmd
}

func exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "export [file]",
		Short:   "Export all items to CSV",
		Example: "  attic export\n  attic export inventory.csv",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.close()

			out := os.Stdout
			if len(args) > 0 {
				f, err := os.Create(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			if err := csvio.Export(out, a.eng.Tree()); err != nil {
				return err
			}
			if len(args) > 0 {
				ui.Success(fmt.Sprintf("Exported %d items to %s", tree.CountItems(a.eng.Tree()), args[0]))
			}
			return nil
		},
	}
}

func importCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:     "import <file>",
		Short:   "Import items from CSV, replacing the current inventory",
		Long:    "Rebuild the inventory from a CSV with Floor, Room, Container, Item Name, Quantity, Category columns. The current tree is replaced; the import itself is undoable.",
		Example: "  attic import inventory.csv",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.close()

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			result, err := csvio.Import(f)
			if err != nil {
				return err
			}
			ui.CommandBanner("import", args[0])
			for _, msg := range result.Errors {
				ui.Warning(msg)
			}
			if result.Count == 0 {
				return fmt.Errorf("no importable rows in %s", args[0])
			}

			if !force {
				proceed, err := ui.Confirm(fmt.Sprintf("Replace the current inventory with %d imported items?", result.Count))
				if err != nil {
					return err
				}
				if !proceed {
					ui.Info("Cancelled.")
					return nil
				}
			}

			sess := a.eng.Session()
			sess.PushUndo("import")
			sess.Tree = result.Tree
			ui.Success(fmt.Sprintf("Imported %d items", result.Count))
			return a.save()
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Skip confirmation prompt")
	return cmd
}

func clearCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Reset the inventory to an empty default house",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.close()

			if !force {
				count := tree.CountItems(a.eng.Tree())
				proceed, err := ui.Confirm(fmt.Sprintf("Clear everything? %d items will be dropped (undoable).", count))
				if err != nil {
					return err
				}
				if !proceed {
					ui.Info("Cancelled.")
					return nil
				}
			}
			a.eng.ClearAll()
			ui.Success("Inventory cleared")
			return a.save()
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Skip confirmation prompt")
	return cmd
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View and edit attic configuration",
	}
	cmd.AddCommand(configShowCmd())
	cmd.AddCommand(configSetCmd())
	return cmd
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display current effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := store.LoadEnv(store.Home())
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(env.Config)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			fmt.Print(string(data))
			return nil
		},
	}
}

func configSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long:  "Set an attic configuration value. Valid keys: proxy.url, proxy.api_key, storage.backend, storage.sync.",
		Example: `  attic config set proxy.url https://my-proxy.example.com
  attic config set storage.backend sqlite
  attic config set storage.sync true`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := store.LoadEnv(store.Home())
			if err != nil {
				return err
			}
			if err := env.SetConfigValue(args[0], args[1]); err != nil {
				return err
			}
			ui.Success(fmt.Sprintf("Set %s = %s", args[0], args[1]))
			return nil
		},
	}
}

func mcpServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run the attic MCP server on stdio",
		Long:  "Expose the inventory as MCP tools so agents can store, remove, and query items directly. Add to your agent's MCP config with command 'attic mcp'.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.close()

			saver := store.NewDebouncedSaver(a.st)
			srv := atticmcp.NewServer(a.eng, saver, buildVersion())
			return srv.Run(cmd.Context())
		},
	}
}
