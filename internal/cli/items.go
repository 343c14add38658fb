package cli

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	wire "freshreceipt_backend/internal/api"
	"freshreceipt_backend/internal/client/api"
)

func (a *app) itemsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "items",
		Aliases: []string{"item"},
		Short:   "Manage the food items of the selected household",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(
		a.itemsListCmd(),
		a.itemsAddCmd(),
		a.itemsConsumeCmd(),
		a.itemsDeleteCmd(),
	)
	return cmd
}

func (a *app) itemsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List food items, newest purchase first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := a.household(); err != nil {
				return err
			}
			all, _ := cmd.Flags().GetBool("all")
			within, _ := cmd.Flags().GetInt("expiring")

			items, err := a.rt.API.ListFoodItems(cmd.Context(), api.FoodItemFilter{IncludeConsumed: all, ExpiringWithinDays: within})
			if err != nil {
				return describe("list items", err)
			}
			tw := newTable(cmd.OutOrStdout(), "ID", "NAME", "QTY", "PRICE", "PURCHASED", "EXPIRES", "STATUS")
			for _, it := range items {
				status := "fresh"
				if it.IsConsumed {
					status = "consumed"
				}
				qty := fmt.Sprint(it.Quantity)
				if it.Unit != nil {
					qty += " " + *it.Unit
				}
				row(tw, it.ID, it.Name, qty, it.Price.StringFixed(2), date(&it.PurchaseDate), date(it.ExpiryDate), status)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().Bool("all", false, "include consumed items")
	cmd.Flags().Int("expiring", -1, "only items expiring within this many days")
	return cmd
}

func (a *app) itemsAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a food item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.household(); err != nil {
				return err
			}
			in, err := foodItemFromFlags(cmd, args[0])
			if err != nil {
				return err
			}
			it, err := a.rt.API.CreateFoodItem(cmd.Context(), in)
			if err != nil {
				return describe("add item", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", it.Name, it.ID)
			return nil
		},
	}
	f := cmd.Flags()
	f.String("price", "", "price, e.g. 3.49")
	f.Int("qty", 1, "quantity")
	f.String("unit", "", "unit, e.g. kg")
	f.String("category", "", "category")
	f.String("location", "", "storage location, e.g. fridge")
	f.String("purchased", "", "purchase date YYYY-MM-DD (default today)")
	f.String("expires", "", "expiry date YYYY-MM-DD")
	return cmd
}

func foodItemFromFlags(cmd *cobra.Command, name string) (wire.FoodItemCreateRequest, error) {
	f := cmd.Flags()
	in := wire.FoodItemCreateRequest{Name: name}
	in.Quantity, _ = f.GetInt("qty")

	if s, _ := f.GetString("price"); s != "" {
		p, err := decimal.NewFromString(s)
		if err != nil {
			return in, fmt.Errorf("invalid --price %q", s)
		}
		in.Price = &p
	}
	for flag, dst := range map[string]**string{"unit": &in.Unit, "category": &in.Category, "location": &in.StorageLocation} {
		if s, _ := f.GetString(flag); s != "" {
			*dst = &s
		}
	}
	for flag, dst := range map[string]**time.Time{"purchased": &in.PurchaseDate, "expires": &in.ExpiryDate} {
		s, _ := f.GetString(flag)
		if s == "" {
			continue
		}
		t, err := time.ParseInLocation(time.DateOnly, s, time.Local)
		if err != nil {
			return in, fmt.Errorf("invalid --%s %q: want YYYY-MM-DD", flag, s)
		}
		*dst = &t
	}
	return in, nil
}

func (a *app) itemsConsumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "consume <id>",
		Short: "Mark a food item as consumed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.household(); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			it, err := a.rt.API.ConsumeFoodItem(cmd.Context(), id)
			if err != nil {
				return describe("consume item", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Consumed %s\n", it.Name)
			return nil
		},
	}
}

func (a *app) itemsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a food item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.household(); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.rt.API.DeleteFoodItem(cmd.Context(), id); err != nil {
				return describe("delete item", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Deleted.")
			return nil
		},
	}
}
