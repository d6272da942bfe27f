// Command dukanctl is a terminal client for the ApniDukan gateway.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"
)

// set by the linker: go build -ldflags "-X main.version=M.N" ./cmd/dukanctl
var version = "dev"

func main() {
	app := cli.NewApp()
	app.Name = "dukanctl"
	app.Usage = "browse local shops, fill a cart and manage orders"
	app.Version = version
	app.Writer = os.Stdout
	app.ErrWriter = os.Stderr
	app.Metadata = map[string]interface{}{}

	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "server, s",
			Value:  "http://localhost:8080",
			Usage:  " gateway base `URL`",
			EnvVar: "DUKAN_API_URL",
		},
		cli.StringFlag{
			Name:   "data, d",
			Value:  defaultDataDir(),
			Usage:  " directory holding the session and cart `DIR`",
			EnvVar: "DUKAN_DATA_DIR",
		},
		cli.BoolFlag{
			Name:  "verbose, v",
			Usage: " log requests to stderr",
		},
	}

	app.Commands = []cli.Command{
		{
			Name:  "register",
			Usage: "create an account and sign in",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "name, n", Usage: "*display `NAME`"},
				cli.StringFlag{Name: "email, e", Usage: "*`EMAIL`"},
				cli.StringFlag{Name: "password, p", Usage: "*`PASSWORD`"},
				cli.StringFlag{Name: "role, r", Value: "customer", Usage: " customer or shopkeeper"},
			},
			Action: runRegister,
		},
		{
			Name:  "login",
			Usage: "sign in",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "email, e", Usage: "*`EMAIL`"},
				cli.StringFlag{Name: "password, p", Usage: "*`PASSWORD`"},
			},
			Action: runLogin,
		},
		{
			Name:   "logout",
			Usage:  "sign out and forget the session",
			Action: runLogout,
		},
		{
			Name:   "whoami",
			Usage:  "show the signed in user",
			Action: runWhoami,
		},
		{
			Name:  "shops",
			Usage: "list shops",
			Flags: []cli.Flag{
				cli.BoolFlag{Name: "mine", Usage: " only shops owned by the signed in shopkeeper"},
				cli.BoolFlag{Name: "refresh", Usage: " bypass the cache"},
			},
			Action: runShops,
		},
		{
			Name:      "shop",
			Usage:     "show one shop and its products",
			ArgsUsage: "SHOP-ID",
			Action:    runShop,
		},
		{
			Name:  "open-shop",
			Usage: "create a shop (shopkeepers only)",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "name", Usage: "*shop `NAME`"},
				cli.StringFlag{Name: "category", Usage: "*`CATEGORY`"},
				cli.StringFlag{Name: "address", Usage: "*`ADDRESS`"},
				cli.StringFlag{Name: "city", Usage: "*`CITY`"},
				cli.StringFlag{Name: "phone", Usage: "*`PHONE`"},
				cli.StringFlag{Name: "timings", Usage: " opening `HOURS`"},
				cli.StringFlag{Name: "description", Usage: " `TEXT`"},
			},
			Action: runOpenShop,
		},
		{
			Name:      "search",
			Usage:     "search shops by name, category, city or address",
			ArgsUsage: "[QUERY]",
			Flags: []cli.Flag{
				cli.BoolFlag{Name: "watch, w", Usage: " read queries from stdin as they are typed"},
				cli.DurationFlag{Name: "delay", Value: searchDelay, Usage: " debounce `DURATION` for --watch"},
			},
			Action: runSearch,
		},
		{
			Name:  "products",
			Usage: "list products",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "shop", Usage: " only products of `SHOP-ID`"},
				cli.StringFlag{Name: "category", Usage: " only products in `CATEGORY`"},
			},
			Action: runProducts,
		},
		{
			Name:  "add-product",
			Usage: "add a product to one of your shops",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "shop", Usage: "*`SHOP-ID`"},
				cli.StringFlag{Name: "name", Usage: "*`NAME`"},
				cli.StringFlag{Name: "description", Usage: "*`TEXT`"},
				cli.Int64Flag{Name: "price", Usage: "*price in `PAISE`"},
				cli.StringFlag{Name: "category", Usage: "*`CATEGORY`"},
				cli.StringFlag{Name: "image", Usage: " image file to upload first `FILE`"},
				cli.IntFlag{Name: "stock", Value: -1, Usage: " units in stock `COUNT`"},
			},
			Action: runAddProduct,
		},
		{
			Name:  "cart",
			Usage: "work with the local cart",
			Subcommands: []cli.Command{
				{Name: "list", Usage: "show the cart", Action: runCartList},
				{Name: "add", Usage: "add one unit of a product", ArgsUsage: "PRODUCT-ID", Action: runCartAdd},
				{Name: "set", Usage: "set the quantity of a product, 0 removes it", ArgsUsage: "PRODUCT-ID QUANTITY", Action: runCartSet},
				{Name: "remove", Usage: "remove a product", ArgsUsage: "PRODUCT-ID", Action: runCartRemove},
				{Name: "clear", Usage: "empty the cart", Action: runCartClear},
			},
		},
		{
			Name:  "checkout",
			Usage: "place an order for the cart",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "name", Usage: "*`NAME`"},
				cli.StringFlag{Name: "email", Usage: "*`EMAIL`"},
				cli.StringFlag{Name: "phone", Usage: "*`PHONE`"},
				cli.StringFlag{Name: "address", Usage: "*`ADDRESS`"},
				cli.StringFlag{Name: "city", Usage: "*`CITY`"},
				cli.StringFlag{Name: "pincode", Usage: "*`PINCODE`"},
				cli.StringFlag{Name: "payment", Value: "cod", Usage: " payment `METHOD`"},
			},
			Action: runCheckout,
		},
		{
			Name:  "orders",
			Usage: "list your orders, or a shop's orders",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "shop", Usage: " only orders of `SHOP-ID`"},
			},
			Action: runOrders,
		},
		{
			Name:      "advance",
			Usage:     "move an order to its next status",
			ArgsUsage: "ORDER-ID",
			Action:    runAdvance,
		},
		{
			Name:      "cancel",
			Usage:     "cancel a pending order",
			ArgsUsage: "ORDER-ID",
			Action:    runCancel,
		},
		{
			Name:      "upload",
			Usage:     "upload one or more images",
			ArgsUsage: "FILE...",
			Action:    runUpload,
		},
		{
			Name:  "version",
			Usage: "display dukanctl version",
			Action: func(c *cli.Context) error {
				fmt.Fprintf(c.App.Writer, "%s\n", version)
				return nil
			},
		},
	}

	app.Before = setup
	app.After = teardown

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(app.ErrWriter, "%s\n", describe(err))
		os.Exit(1)
	}
}
