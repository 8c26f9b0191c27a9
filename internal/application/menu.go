package application

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/iwin-ettumanukaran/IMS/internal/bulk"
	"github.com/iwin-ettumanukaran/IMS/internal/inventory"
	"github.com/iwin-ettumanukaran/IMS/internal/record"
)

/* ----------------------------------------
	MENU TREE
---------------------------------------- */

type MenuItem struct {
	Label   string
	Submenu *Menu
	Action  func(m *Model) tea.Cmd
}

type Menu struct {
	Title  string
	Items  []MenuItem
	Parent *Menu
}

func linkParents(menu *Menu, parent *Menu) {
	menu.Parent = parent

	for i := range menu.Items {
		item := &menu.Items[i]

		if item.Label == "Back" {
			item.Submenu = parent
			continue
		}

		if item.Submenu != nil {
			linkParents(item.Submenu, menu)
		}
	}
}

/* ----------------------------------------
	MENU TREE DEFINITION
---------------------------------------- */

func buildMenuTree(m *Model) *Menu {
	root := &Menu{
		Title: "Inventory Tracker",
		Items: []MenuItem{
			{Label: "Inventory ->", Submenu: inventoryMenu()},
			{Label: "Sales ->", Submenu: salesMenu()},
			{Label: "Bulk ->", Submenu: bulkMenu()},
			{Label: "Reports ->", Submenu: reportsMenu()},
			{Label: "Quit", Action: func(m *Model) tea.Cmd {
				m.quitting = true
				return tea.Quit
			}},
		},
	}

	linkParents(root, nil)

	return root
}

/* ----------------------------------------
	LOAD MENUS
---------------------------------------- */

func inventoryMenu() *Menu {
	return &Menu{
		Title: "Inventory",
		Items: []MenuItem{
			{Label: "Add Product", Action: addProductAction},
			{Label: "Update Quantity", Action: updateQuantityAction},
			{Label: "View Products", Action: viewProductsAction},
			{Label: "Back"},
		},
	}
}

func salesMenu() *Menu {
	return &Menu{
		Title: "Sales",
		Items: []MenuItem{
			{Label: "Record Sale", Action: recordSaleAction},
			{Label: "Sales History", Action: salesHistoryAction},
			{Label: "Back"},
		},
	}
}

func bulkMenu() *Menu {
	return &Menu{
		Title: "Bulk Operations",
		Items: []MenuItem{
			{Label: "Bulk Add", Action: bulkAddAction},
			{Label: "Bulk Sell", Action: bulkSellAction},
			{Label: "Import Feed", Action: importFeedAction},
			{Label: "Back"},
		},
	}
}

func reportsMenu() *Menu {
	return &Menu{
		Title: "Reports",
		Items: []MenuItem{
			{Label: "Low Stock", Action: lowStockAction},
			{Label: "Inventory Value", Action: inventoryValueAction},
			{Label: "Total Revenue", Action: totalRevenueAction},
			{Label: "Top Sellers", Action: topSellersAction},
			{Label: "Back"},
		},
	}
}

/* ----------------------------------------
	ACTIONS
---------------------------------------- */

func addProductAction(m *Model) tea.Cmd {
	return m.startPrompt(&promptSession{
		title:  "Add Product",
		labels: []string{"id", "name", "quantity", "price"},
		run: func(_ []string, rows [][]string) (string, error) {
			row := rows[0]
			qty, err := record.ParseQuantity(row[2])
			if err != nil {
				return "", fmt.Errorf("quantity: %v", err)
			}
			price, err := record.ParsePrice(row[3])
			if err != nil {
				return "", fmt.Errorf("price: %v", err)
			}
			if err := m.store.Add(row[0], row[1], qty, price); err != nil {
				return "", err
			}
			return fmt.Sprintf("Added %q.", row[0]), nil
		},
	})
}

func updateQuantityAction(m *Model) tea.Cmd {
	return m.startPrompt(&promptSession{
		title:  "Update Quantity",
		labels: []string{"id", "quantity"},
		run: func(_ []string, rows [][]string) (string, error) {
			row := rows[0]
			qty, err := record.ParseQuantity(row[1])
			if err != nil {
				return "", fmt.Errorf("quantity: %v", err)
			}
			if err := m.store.SetQuantity(row[0], qty); err != nil {
				return "", err
			}
			return fmt.Sprintf("Quantity of %q set to %d.", row[0], qty), nil
		},
	})
}

func viewProductsAction(m *Model) tea.Cmd {
	return func() tea.Msg {
		products := m.store.All()
		if len(products) == 0 {
			return resultMsg{text: "No products."}
		}
		return resultMsg{text: formatProducts(products)}
	}
}

func recordSaleAction(m *Model) tea.Cmd {
	return m.startPrompt(&promptSession{
		title:  "Record Sale",
		labels: []string{"id", "quantity", "customer"},
		run: func(_ []string, rows [][]string) (string, error) {
			row := rows[0]
			qty, err := record.ParseQuantity(row[1])
			if err != nil {
				return "", fmt.Errorf("quantity: %v", err)
			}
			ev, err := m.store.Deduct(row[0], qty, row[2])
			if err != nil {
				var lerr *inventory.LedgerAppendError
				if errors.As(err, &lerr) {
					// Stock was deducted; only the sales log write failed.
					return fmt.Sprintf("WARNING: sold %d of %q, but the sale could not be written to the sales log: %v",
						ev.Quantity, ev.ProductID, lerr.Err), nil
				}
				return "", err
			}
			return fmt.Sprintf("Sold %d of %q to %s.", ev.Quantity, ev.ProductID, ev.Customer), nil
		},
	})
}

func salesHistoryAction(m *Model) tea.Cmd {
	return m.startPrompt(&promptSession{
		title:  "Sales History",
		labels: []string{"id"},
		run: func(_ []string, rows [][]string) (string, error) {
			events, err := m.reports.History(rows[0][0])
			if err != nil {
				return "", err
			}
			if len(events) == 0 {
				return fmt.Sprintf("No sales recorded for %q.", rows[0][0]), nil
			}
			var b strings.Builder
			for _, ev := range events {
				fmt.Fprintf(&b, "%s  %d x %s -> %s\n",
					ev.Timestamp.Format(record.TimeLayout), ev.Quantity, ev.ProductName, ev.Customer)
			}
			return b.String(), nil
		},
	})
}

func bulkAddAction(m *Model) tea.Cmd {
	return m.startPrompt(&promptSession{
		title:  "Bulk Add",
		labels: []string{"id", "name", "quantity", "price"},
		multi:  true,
		run: func(_ []string, rows [][]string) (string, error) {
			candidates := make([]bulk.AddCandidate, len(rows))
			for i, row := range rows {
				candidates[i] = bulk.AddCandidate{ID: row[0], Name: row[1], Quantity: row[2], Price: row[3]}
			}
			sum := m.engine.AddAll(candidates)
			return fmt.Sprintf("Bulk add: %d added, %d skipped (reasons in log).", sum.Added, sum.Skipped), nil
		},
	})
}

func bulkSellAction(m *Model) tea.Cmd {
	return m.startPrompt(&promptSession{
		title:     "Bulk Sell",
		preLabels: []string{"customer"},
		labels:    []string{"id", "quantity"},
		multi:     true,
		run: func(pre []string, rows [][]string) (string, error) {
			candidates := make([]bulk.SellCandidate, len(rows))
			for i, row := range rows {
				candidates[i] = bulk.SellCandidate{ID: row[0], Quantity: row[1]}
			}
			sum := m.engine.SellAll(candidates, pre[0])
			text := fmt.Sprintf("Bulk sell: %d sold, %d skipped (reasons in log).", sum.Sold, sum.Skipped)
			if sum.LedgerErrors > 0 {
				text += fmt.Sprintf(" WARNING: %d sale(s) missing from the sales log.", sum.LedgerErrors)
			}
			return text, nil
		},
	})
}

func importFeedAction(m *Model) tea.Cmd {
	return m.startPrompt(&promptSession{
		title:  "Import Feed",
		labels: []string{"feed path"},
		hint:   "CSV with a header row; product_id and quantity columns are required.",
		run: func(_ []string, rows [][]string) (string, error) {
			sum, err := m.engine.UpsertFeed(rows[0][0])
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Feed merged: %d updated, %d added, %d skipped (reasons in log).",
				sum.Updated, sum.Added, sum.Skipped), nil
		},
	})
}

func lowStockAction(m *Model) tea.Cmd {
	return func() tea.Msg {
		products := m.reports.LowStock(m.cfg.Report.LowStockThreshold)
		if len(products) == 0 {
			return resultMsg{text: fmt.Sprintf("No products at or below %d.", m.cfg.Report.LowStockThreshold)}
		}
		return resultMsg{text: formatProducts(products)}
	}
}

func inventoryValueAction(m *Model) tea.Cmd {
	return func() tea.Msg {
		return resultMsg{text: fmt.Sprintf("Total inventory value: %s", m.reports.InventoryValue())}
	}
}

func totalRevenueAction(m *Model) tea.Cmd {
	return func() tea.Msg {
		total, err := m.reports.TotalRevenue()
		if err != nil {
			return resultMsg{err: err}
		}
		return resultMsg{text: fmt.Sprintf("Total revenue (at current prices): %s", total)}
	}
}

func topSellersAction(m *Model) tea.Cmd {
	return func() tea.Msg {
		top, err := m.reports.TopSellers(m.cfg.Report.TopSellers)
		if err != nil {
			return resultMsg{err: err}
		}
		if len(top) == 0 {
			return resultMsg{text: "No sales recorded yet."}
		}
		var b strings.Builder
		for i, st := range top {
			fmt.Fprintf(&b, "%d. %s (%s): %d sold\n", i+1, st.Name, st.ProductID, st.Quantity)
		}
		return resultMsg{text: b.String()}
	}
}

func formatProducts(products []record.Product) string {
	var b strings.Builder
	for _, p := range products {
		fmt.Fprintf(&b, "%-12s %-20s qty %-6d price %s\n", p.ID, p.Name, p.Quantity, p.Price)
	}
	return b.String()
}
