package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli"

	"ApniDukan/internal/cart"
	"ApniDukan/internal/catalog"
	"ApniDukan/internal/client"
	"ApniDukan/internal/order"
)

const searchDelay = 300 * time.Millisecond

var errUsage = errors.New("missing arguments, see --help")

func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s\n", b)
	return nil
}

func rupees(paise int64) string {
	sign := ""
	if paise < 0 {
		sign, paise = "-", -paise
	}
	return fmt.Sprintf("%s₹%d.%02d", sign, paise/100, paise%100)
}

func required(c *cli.Context, names ...string) error {
	var missing []string
	for _, n := range names {
		if strings.TrimSpace(c.String(n)) == "" {
			missing = append(missing, "--"+n)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("required: %s", strings.Join(missing, ", "))
	}
	return nil
}

func runRegister(c *cli.Context) error {
	if err := required(c, "name", "email", "password"); err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()

	sess, err := envOf(c).api.Register(ctx, client.RegisterInput{
		Name:     c.String("name"),
		Email:    c.String("email"),
		Password: c.String("password"),
		Role:     c.String("role"),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "signed in as %s (%s)\n", sess.User.Name, sess.User.Role)
	return nil
}

func runLogin(c *cli.Context) error {
	if err := required(c, "email", "password"); err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()

	sess, err := envOf(c).api.Login(ctx, c.String("email"), c.String("password"))
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "signed in as %s (%s)\n", sess.User.Name, sess.User.Role)
	return nil
}

func runLogout(c *cli.Context) error {
	ctx, cancel := commandContext()
	defer cancel()

	if err := envOf(c).api.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "signed out")
	return nil
}

func runWhoami(c *cli.Context) error {
	ctx, cancel := commandContext()
	defer cancel()

	u, err := envOf(c).api.Me(ctx)
	if err != nil {
		return err
	}
	return printJSON(c.App.Writer, u)
}

func printShops(w io.Writer, shops []catalog.Shop) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tCITY\tTIMINGS")
	for _, s := range shops {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", s.ID, s.ShopName, s.Category, s.City, s.Timings)
	}
	_ = tw.Flush()
}

func printProducts(w io.Writer, products []catalog.Product) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tCATEGORY\tIN STOCK")
	for _, p := range products {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\n", p.ID, p.Name, rupees(p.Price), p.Category, p.InStock)
	}
	_ = tw.Flush()
}

func runShops(c *cli.Context) error {
	e := envOf(c)
	ctx, cancel := commandContext()
	defer cancel()

	var (
		shops []catalog.Shop
		err   error
	)
	if c.Bool("mine") {
		u, merr := e.api.Me(ctx)
		if merr != nil {
			return merr
		}
		shops, err = e.api.ListShopsByOwner(ctx, u.ID)
	} else {
		shops, err = e.api.ListShops(ctx, !c.Bool("refresh"))
	}
	if err != nil {
		return err
	}
	printShops(c.App.Writer, shops)
	return nil
}

func runShop(c *cli.Context) error {
	id := c.Args().First()
	if id == "" {
		return errUsage
	}
	e := envOf(c)
	ctx, cancel := commandContext()
	defer cancel()

	shop, err := e.api.GetShop(ctx, id)
	if err != nil {
		return err
	}
	products, err := e.api.ListProducts(ctx, client.ProductFilter{ShopID: id})
	if err != nil {
		return err
	}

	w := c.App.Writer
	fmt.Fprintf(w, "%s (%s)\n%s, %s\nphone %s, open %s\n\n", shop.ShopName, shop.Category, shop.Address, shop.City, shop.Phone, shop.Timings)
	printProducts(w, products)
	return nil
}

func optional(c *cli.Context, name string) *string {
	if !c.IsSet(name) {
		return nil
	}
	v := c.String(name)
	return &v
}

func runOpenShop(c *cli.Context) error {
	if err := required(c, "name", "category", "address", "city", "phone"); err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()

	shop, err := envOf(c).api.CreateShop(ctx, client.ShopInput{
		ShopName:    optional(c, "name"),
		Category:    optional(c, "category"),
		Address:     optional(c, "address"),
		City:        optional(c, "city"),
		Phone:       optional(c, "phone"),
		Timings:     optional(c, "timings"),
		Description: optional(c, "description"),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "opened %s as %s\n", shop.ShopName, shop.ID)
	return nil
}

func runSearch(c *cli.Context) error {
	e := envOf(c)
	ctx, cancel := commandContext()
	defer cancel()

	shops, err := e.api.ListShops(ctx, true)
	if err != nil {
		return err
	}

	if !c.Bool("watch") {
		printShops(c.App.Writer, client.FilterShops(shops, strings.Join(c.Args(), " ")))
		return nil
	}

	results := make(chan []catalog.Shop, 1)
	d := client.Debounce(c.Duration("delay"), func(q string) {
		results <- client.FilterShops(shops, q)
	})
	defer d.Stop()

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	var last string
	for {
		select {
		case <-ctx.Done():
			return nil
		case found := <-results:
			fmt.Fprintf(c.App.Writer, "-- %d shop(s)\n", len(found))
			printShops(c.App.Writer, found)
		case line, ok := <-lines:
			if !ok {
				d.Stop()
				printShops(c.App.Writer, client.FilterShops(shops, last))
				return nil
			}
			last = line
			d.Call(line)
		}
	}
}

func runProducts(c *cli.Context) error {
	ctx, cancel := commandContext()
	defer cancel()

	products, err := envOf(c).api.ListProducts(ctx, client.ProductFilter{
		ShopID:   c.String("shop"),
		Category: c.String("category"),
	})
	if err != nil {
		return err
	}
	printProducts(c.App.Writer, products)
	return nil
}

func runAddProduct(c *cli.Context) error {
	if err := required(c, "shop", "name", "description", "category"); err != nil {
		return err
	}
	e := envOf(c)
	ctx, cancel := commandContext()
	defer cancel()

	price := c.Int64("price")
	in := client.ProductInput{
		ShopID:      optional(c, "shop"),
		Name:        optional(c, "name"),
		Description: optional(c, "description"),
		Category:    optional(c, "category"),
		Price:       &price,
	}
	if stock := c.Int("stock"); stock >= 0 {
		in.Stock = &stock
	}

	if path := c.String("image"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		up, err := e.api.UploadFile(ctx, filepath.Base(path), f)
		if err != nil {
			return err
		}
		in.Image = &up.URL
	}

	p, err := e.api.CreateProduct(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "added %s at %s as %s\n", p.Name, rupees(p.Price), p.ID)
	return nil
}

func printCart(w io.Writer, cs *cart.Store) {
	items := cs.Items()
	if len(items) == 0 {
		fmt.Fprintln(w, "cart is empty")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PRODUCT\tNAME\tSHOP\tQTY\tPRICE\tSUBTOTAL")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n", it.ProductID, it.ProductName, it.ShopName,
			it.Quantity, rupees(it.Price), rupees(it.Price*int64(it.Quantity)))
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "%d item(s), total %s\n", cs.Count(), rupees(cs.Total()))
}

func runCartList(c *cli.Context) error {
	printCart(c.App.Writer, envOf(c).cart)
	return nil
}

func runCartAdd(c *cli.Context) error {
	id := c.Args().First()
	if id == "" {
		return errUsage
	}
	e := envOf(c)
	ctx, cancel := commandContext()
	defer cancel()

	p, err := e.api.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	if !p.InStock {
		return fmt.Errorf("%s is out of stock", p.Name)
	}
	shop, err := e.api.GetShop(ctx, p.ShopID)
	if err != nil {
		return err
	}

	it, err := e.cart.Add(cart.Item{
		ProductID:   p.ID,
		ProductName: p.Name,
		Price:       p.Price,
		Image:       p.Image,
		ShopID:      shop.ID,
		ShopName:    shop.ShopName,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "%s x%d in cart\n", it.ProductName, it.Quantity)
	return nil
}

func cartItem(c *cli.Context) (cart.Item, error) {
	id := c.Args().First()
	if id == "" {
		return cart.Item{}, errUsage
	}
	it, ok := envOf(c).cart.Find(id)
	if !ok {
		return cart.Item{}, fmt.Errorf("%s is not in the cart", id)
	}
	return it, nil
}

func runCartSet(c *cli.Context) error {
	it, err := cartItem(c)
	if err != nil {
		return err
	}
	qty, err := strconv.Atoi(c.Args().Get(1))
	if err != nil {
		return fmt.Errorf("quantity: %w", err)
	}
	e := envOf(c)
	e.cart.SetQuantity(it.ID, qty)
	printCart(c.App.Writer, e.cart)
	return nil
}

func runCartRemove(c *cli.Context) error {
	it, err := cartItem(c)
	if err != nil {
		return err
	}
	e := envOf(c)
	e.cart.Remove(it.ID)
	printCart(c.App.Writer, e.cart)
	return nil
}

func runCartClear(c *cli.Context) error {
	envOf(c).cart.Clear()
	fmt.Fprintln(c.App.Writer, "cart cleared")
	return nil
}

func runCheckout(c *cli.Context) error {
	e := envOf(c)
	ctx, cancel := commandContext()
	defer cancel()

	o, err := e.cart.Checkout(ctx, e.api, cart.Customer{
		Name:    c.String("name"),
		Email:   c.String("email"),
		Phone:   c.String("phone"),
		Address: c.String("address"),
		City:    c.String("city"),
		Pincode: c.String("pincode"),
	}, c.String("payment"))
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "order %s placed at %s, total %s, status %s\n", o.ID, o.ShopName, rupees(o.Total), o.Status)
	return nil
}

func runOrders(c *cli.Context) error {
	e := envOf(c)
	ctx, cancel := commandContext()
	defer cancel()

	board := client.NewOrderBoard(e.api, c.String("shop"))
	if err := board.Load(ctx); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSHOP\tCUSTOMER\tTOTAL\tSTATUS\tNEXT\tPLACED")
	for _, o := range board.Orders() {
		next := "-"
		if acts, err := board.Actions(o.ID); err == nil && acts.CanAdvance {
			next = string(acts.Next)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", o.ID, o.ShopName, o.Name, rupees(o.Total),
			o.Status, next, o.CreatedAt.Local().Format("02 Jan 15:04"))
	}
	return tw.Flush()
}

// boardFor loads the board of the shop the order belongs to.
func boardFor(ctx context.Context, api *client.Client, id string) (*client.OrderBoard, error) {
	o, err := api.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	board := client.NewOrderBoard(api, o.ShopID)
	if err := board.Load(ctx); err != nil {
		return nil, err
	}
	return board, nil
}

func runAdvance(c *cli.Context) error {
	return moveOrder(c, (*client.OrderBoard).Advance)
}

func runCancel(c *cli.Context) error {
	return moveOrder(c, (*client.OrderBoard).Cancel)
}

func moveOrder(c *cli.Context, move func(*client.OrderBoard, context.Context, string) (order.Order, error)) error {
	id := c.Args().First()
	if id == "" {
		return errUsage
	}
	ctx, cancel := commandContext()
	defer cancel()

	board, err := boardFor(ctx, envOf(c).api, id)
	if err != nil {
		return err
	}
	o, err := move(board, ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "order %s is now %s\n", o.ID, o.Status)
	return nil
}

func runUpload(c *cli.Context) error {
	if c.NArg() == 0 {
		return errUsage
	}
	ctx, cancel := commandContext()
	defer cancel()

	var sources []client.UploadSource
	for _, path := range c.Args() {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		sources = append(sources, client.UploadSource{Name: filepath.Base(path), Data: f})
	}

	files, err := envOf(c).api.UploadFiles(ctx, sources)
	if err != nil {
		return err
	}
	for _, f := range files {
		fmt.Fprintln(c.App.Writer, f.URL)
	}
	return nil
}
