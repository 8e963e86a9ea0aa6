package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"forkful/internal/domain"
)

func table(w io.Writer, header string, rows func(tw *tabwriter.Writer)) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, header)
	rows(tw)
	_ = tw.Flush()
}

func printUser(w io.Writer, u *domain.User) {
	fmt.Fprintf(w, "id:     %d\nemail:  %s\n", u.ID, u.Email)
	if name := u.FirstName + " " + u.LastName; name != " " {
		fmt.Fprintf(w, "name:   %s\n", name)
	}
	if u.PhoneNumber != "" {
		fmt.Fprintf(w, "phone:  %s\n", u.PhoneNumber)
	}
}

func printCategories(w io.Writer, categories []domain.Category) {
	table(w, "ID\tNAME\tDESCRIPTION", func(tw *tabwriter.Writer) {
		for _, c := range categories {
			fmt.Fprintf(tw, "%d\t%s\t%s\n", c.ID, c.Name, c.Description)
		}
	})
}

func printRestaurants(w io.Writer, restaurants []domain.Restaurant) {
	table(w, "ID\tNAME\tCUISINE\tRATING\tFEE\tETA\tOPEN", func(tw *tabwriter.Writer) {
		for _, r := range restaurants {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%.1f (%d)\t$%.2f\t%d min\t%t\n",
				r.ID, r.Name, r.CuisineType, r.AverageRating, r.TotalReviews, r.DeliveryFee, r.EstimatedDeliveryTime, r.IsOpen)
		}
	})
}

func printMenu(w io.Writer, items []domain.MenuItem) {
	table(w, "ID\tNAME\tPRICE\tTAGS", func(tw *tabwriter.Writer) {
		for _, it := range items {
			fmt.Fprintf(tw, "%d\t%s\t$%.2f\t%s\n", it.ID, it.Name, it.Price, menuTags(it))
		}
	})
}

func menuTags(it domain.MenuItem) string {
	var tags string
	add := func(ok bool, tag string) {
		if !ok {
			return
		}
		if tags != "" {
			tags += ","
		}
		tags += tag
	}
	add(!it.IsAvailable, "sold-out")
	add(it.IsVegetarian, "vegetarian")
	add(it.IsVegan, "vegan")
	add(it.IsGlutenFree, "gluten-free")
	add(it.IsSpicy, "spicy")
	return tags
}

func printCart(w io.Writer, cart *domain.Cart) {
	if cart.IsEmpty() {
		fmt.Fprintln(w, "cart is empty")
		return
	}
	if cart.RestaurantName != "" {
		fmt.Fprintf(w, "from %s\n\n", cart.RestaurantName)
	}
	table(w, "LINE\tITEM\tQTY\tTOTAL", func(tw *tabwriter.Writer) {
		for _, line := range cart.Items {
			fmt.Fprintf(tw, "%d\t%s\t%d\t$%.2f\n", line.ID, line.MenuItem.Name, line.Quantity, line.TotalPrice)
		}
	})
	fmt.Fprintf(w, "\n%d items, $%.2f\n", cart.TotalItems, cart.TotalAmount)
}

func printOrders(w io.Writer, orders []domain.Order) {
	if len(orders) == 0 {
		fmt.Fprintln(w, "no orders yet")
		return
	}
	table(w, "ID\tNUMBER\tRESTAURANT\tSTATUS\tPAYMENT\tTOTAL", func(tw *tabwriter.Writer) {
		for _, o := range orders {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t$%.2f\n", o.ID, o.OrderNumber, o.RestaurantName, statusLabel(o), o.PaymentStatus, o.TotalAmount)
		}
	})
}

func printOrder(w io.Writer, o *domain.Order) {
	fmt.Fprintf(w, "order %s (#%d) from %s\n", o.OrderNumber, o.ID, o.RestaurantName)
	fmt.Fprintf(w, "status: %s, payment: %s, %s\n\n", statusLabel(*o), o.PaymentStatus, o.DeliveryType)
	table(w, "ITEM\tQTY\tTOTAL", func(tw *tabwriter.Writer) {
		for _, it := range o.Items {
			fmt.Fprintf(tw, "%s\t%d\t$%.2f\n", it.MenuItemName, it.Quantity, it.TotalPrice)
		}
	})
	fmt.Fprintf(w, "\nsubtotal $%.2f  delivery $%.2f  tax $%.2f  discount -$%.2f  total $%.2f\n",
		o.Subtotal, o.DeliveryFee, o.TaxAmount, o.DiscountAmount, o.TotalAmount)
	if len(o.TrackingUpdates) > 0 {
		fmt.Fprintln(w)
		for _, t := range o.TrackingUpdates {
			fmt.Fprintf(w, "  %s  %-16s %s\n", t.Timestamp, t.Status, t.Message)
		}
	}
}

// statusLabel renders unknown statuses verbatim.
func statusLabel(o domain.Order) string {
	if o.StatusDisplay != "" {
		return o.StatusDisplay
	}
	return string(o.Status)
}
