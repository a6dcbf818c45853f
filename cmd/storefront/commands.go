package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/example/storefront/internal/cart"
	"github.com/example/storefront/internal/catalog"
	"github.com/example/storefront/internal/checkout"
	"github.com/example/storefront/internal/money"
	"github.com/example/storefront/internal/session"
)

func (a *app) loadCatalog(ctx context.Context) (*catalog.Store, error) {
	var source catalog.Source = catalog.NewHTTPSource(a.cfg.CatalogURL, a.cfg.RequestTimeout)
	if a.redis != nil {
		source = catalog.NewCachedSource(source, a.redis, a.cfg.CatalogCacheTTL, a.logger)
	}
	store := catalog.NewStore(source, a.logger)
	if err := store.Load(ctx); err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return store, nil
}

func runProducts(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("products", flag.ContinueOnError)
	category := fs.String("category", catalog.CategoryAll, "category to show")
	band := fs.String("price", catalog.PriceBandAll, "price band: all, under25, 25to50, 50to100, over100")
	rating := fs.Int("rating", 0, "minimum whole-star rating")
	search := fs.String("search", "", "case-insensitive text in title or description")
	order := fs.String("sort", string(catalog.SortFeatured), "featured, price-low, price-high, rating, newest")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := a.loadCatalog(ctx)
	if err != nil {
		return err
	}

	priceRange := catalog.PriceBandRange(*band)
	store.SetFilter(catalog.FilterUpdate{
		Category:   category,
		PriceRange: &priceRange,
		MinRating:  rating,
		Search:     search,
	})
	products := catalog.Sort(store.ApplyFilters(), catalog.SortOrder(*order))

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPRICE\tRATING\tCATEGORY\tTITLE")
	for _, p := range products {
		fmt.Fprintf(tw, "%s\t$%s\t%.1f\t%s\t%s\n", p.ID, money.Format(p.Price), p.Rating.Rate, p.Category, truncate(p.Title, 50))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "\n%d of %d products\n", len(products), len(store.Products()))
	return nil
}

func runCategories(ctx context.Context, a *app, args []string) error {
	store, err := a.loadCatalog(ctx)
	if err != nil {
		return err
	}
	for _, c := range store.Categories() {
		fmt.Fprintln(a.out, c)
	}
	return nil
}

func runRegister(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	name := fs.String("name", "", "full name")
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password (prompted when omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	pw := *password
	confirm := pw
	if pw == "" {
		pw = a.prompt("Password: ")
		confirm = a.prompt("Confirm password: ")
	}

	if err := session.ValidateRegistration(*name, *email, pw, confirm); err != nil {
		var verr *session.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("%s: %s", verr.Field, verr.Message)
		}
		return err
	}

	if err := a.session.Register(ctx, *name, *email, pw); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Welcome, %s!\n", a.session.User().Name)
	return nil
}

func runLogin(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password (prompted when omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	e := *email
	if e == "" {
		e = a.prompt("Email: ")
	}
	pw := *password
	if pw == "" {
		pw = a.prompt("Password: ")
	}

	if err := a.session.Login(ctx, e, pw); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Signed in as %s <%s>\n", a.session.User().Name, a.session.User().Email)
	return nil
}

func runWhoami(ctx context.Context, a *app, args []string) error {
	u := a.session.User()
	if u == nil {
		fmt.Fprintln(a.out, "Not signed in")
		return nil
	}
	fmt.Fprintf(a.out, "%s <%s> (%s)\n", u.Name, u.Email, u.ID)
	return nil
}

func runLogout(ctx context.Context, a *app, args []string) error {
	a.session.Logout(ctx)
	fmt.Fprintln(a.out, "Signed out")
	return nil
}

func runCheckout(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("checkout", flag.ContinueOnError)
	var items itemList
	fs.Var(&items, "item", "product to buy as id or id:quantity (repeatable)")
	var form checkout.Form
	fs.StringVar(&form.FirstName, "first-name", "", "first name")
	fs.StringVar(&form.LastName, "last-name", "", "last name")
	fs.StringVar(&form.Email, "email", "", "email (defaults to the signed-in user)")
	fs.StringVar(&form.Phone, "phone", "", "phone")
	fs.StringVar(&form.Address, "address", "", "street address")
	fs.StringVar(&form.Apartment, "apartment", "", "apartment, suite, etc.")
	fs.StringVar(&form.City, "city", "", "city")
	fs.StringVar(&form.State, "state", "", "state")
	fs.StringVar(&form.Zip, "zip", "", "ZIP code")
	fs.StringVar(&form.Country, "country", "", "country")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if len(items) == 0 {
		return errors.New("add at least one -item")
	}
	prefillFromUser(&form, a.session.User())

	store, err := a.loadCatalog(ctx)
	if err != nil {
		return err
	}
	c := cart.NewStore()
	for _, it := range items {
		p, ok := store.Product(it.productID)
		if !ok {
			return fmt.Errorf("product %q not found", it.productID)
		}
		c.AddItem(p, it.quantity)
	}
	a.printCart(c)

	payments := checkout.NewHTTPPaymentClient(a.cfg.APIBaseURL, a.cfg.RequestTimeout, a.session.Authorize)
	orch := checkout.New(c, payments,
		checkout.WithTimeouts(a.cfg.CheckoutTimeout, a.cfg.CheckoutTimeout),
		checkout.WithLogger(a.logger))

	if err := orch.Submit(ctx, form); err != nil {
		var verrs checkout.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for f := range verrs {
				fields = append(fields, f)
			}
			sort.Strings(fields)
			for _, f := range fields {
				fmt.Fprintf(a.out, "  %s: %s\n", f, verrs[f])
			}
			return errors.New("please fill in all required fields")
		}
		return checkoutError(orch, err)
	}

	fmt.Fprintf(a.out, "\nApprove the payment in your browser:\n  %s\n\n", orch.ApprovalURL())
	answer := a.prompt("Press Enter once approved, or type 'cancel': ")
	if strings.EqualFold(answer, "cancel") {
		if err := orch.Cancel(); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Checkout cancelled, your cart was kept.")
		return nil
	}

	order, err := orch.Approve(ctx)
	if err != nil {
		return checkoutError(orch, err)
	}
	fmt.Fprintf(a.out, "\nThank you! Order %s is confirmed.\n", order.Number)
	fmt.Fprintf(a.out, "Transaction: %s\nTotal: $%s\n", order.CaptureID, money.Format(order.Total))
	return nil
}

func (a *app) printCart(c *cart.Store) {
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "QTY\tPRICE\tSUBTOTAL\tTITLE")
	for _, l := range c.Lines() {
		fmt.Fprintf(tw, "%d\t$%s\t$%s\t%s\n", l.Quantity, money.Format(l.Price), money.Format(l.Subtotal()), truncate(l.Title, 50))
	}
	_ = tw.Flush()
	fmt.Fprintf(a.out, "Total (%d items): $%s\n", c.TotalQuantity(), money.Format(c.TotalAmount()))
}

func (a *app) prompt(label string) string {
	fmt.Fprint(a.out, label)
	line, _ := a.in.ReadString('\n')
	return strings.TrimSpace(line)
}

func checkoutError(orch *checkout.Orchestrator, err error) error {
	if reason := orch.FailureReason(); reason != "" {
		return fmt.Errorf("checkout failed: %s", reason)
	}
	return err
}

func prefillFromUser(form *checkout.Form, u *session.User) {
	if u == nil {
		return
	}
	if form.Email == "" {
		form.Email = u.Email
	}
	if form.FirstName == "" && form.LastName == "" {
		first, last, _ := strings.Cut(strings.TrimSpace(u.Name), " ")
		form.FirstName, form.LastName = first, strings.TrimSpace(last)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
