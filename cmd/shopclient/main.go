package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/google/uuid"

	"github.com/shopishop/client-go/internal/cart"
	"github.com/shopishop/client-go/internal/catalog"
	"github.com/shopishop/client-go/internal/checkout"
	"github.com/shopishop/client-go/internal/config"
	"github.com/shopishop/client-go/internal/events"
	"github.com/shopishop/client-go/internal/logging"
	"github.com/shopishop/client-go/internal/models"
	"github.com/shopishop/client-go/internal/session"
	"github.com/shopishop/client-go/internal/stockfeed"
	"github.com/shopishop/client-go/internal/store"
	"github.com/shopishop/client-go/internal/wishlist"
	"github.com/shopishop/client-go/pkg/restclient"
)

const usage = `usage: shopclient <command> [args]

commands:
  login <email> <password>
  logout
  whoami
  products
  cart
  cart-add <productId> <delta>
  cart-remove <productId>
  cart-clear
  wishlist-toggle <productId>
  checkout <address1> <zipCode> <country> <city> <contactNumber>
  watch
`

type app struct {
	sessions *session.Manager
	carts    *cart.Synchronizer
	wishes   *wishlist.Wishlist
	flow     *checkout.Flow
	shop     *catalog.Service
	monitor  *session.Monitor
	feed     *stockfeed.Feed
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)

	st, err := store.Open(configuration.STATE_DB_PATH)
	if err != nil {
		log.Fatalf("state store init error: %v", err)
	}
	defer st.Close()

	api := restclient.New(configuration.API_BASE_URL, configuration.HTTP_TIMEOUT)

	sessions, err := session.NewManager(api, st, logger)
	if err != nil {
		log.Fatalf("session init error: %v", err)
	}

	var producer events.Publisher
	if configuration.KAFKA_ADDRESS != "" {
		kafkaProducer := events.NewProducer([]string{configuration.KAFKA_ADDRESS}, configuration.KAFKA_TOPIC)
		defer kafkaProducer.Close()
		producer = kafkaProducer
	}

	carts := cart.NewSynchronizer(api, sessions, st, producer, logger)
	a := &app{
		sessions: sessions,
		carts:    carts,
		wishes:   wishlist.New(api, sessions, st, logger),
		flow:     checkout.NewFlow(api, sessions, carts, st, logger),
		shop:     catalog.New(api, sessions, logger),
		monitor:  session.NewMonitor(sessions, api, configuration.VALIDATE_INTERVAL, logger),
		feed:     stockfeed.New(configuration.WS_URL, logger),
	}

	ctx, cancel := context.WithCancel(logging.IntoContext(context.Background(), logger))
	defer cancel()

	if err := a.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		log.Fatalf("%s: %v", os.Args[1], err)
	}
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "login":
		if len(args) != 2 {
			return fmt.Errorf("login needs <email> <password>")
		}
		sess, err := a.sessions.Login(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("logged in as %s (%s)\n", sess.Email, sess.Role)
		return nil

	case "logout":
		a.sessions.Logout(ctx)
		fmt.Println("logged out")
		return nil

	case "whoami":
		sess := a.sessions.Current()
		if !sess.Authenticated() {
			fmt.Println("guest")
			return nil
		}
		fmt.Printf("%s (%s)\n", sess.Email, sess.Role)
		if sess.Store != nil {
			fmt.Printf("store: %s (%s)\n", sess.Store.Name, sess.Store.ID)
		}
		return nil

	case "products":
		products, err := a.shop.Products(ctx)
		if err != nil {
			return err
		}
		for _, p := range products {
			fmt.Printf("%s  %-30s %8s  stock %d\n", p.ID, p.Name, p.Price.StringFixed(2), p.Quantity)
		}
		return nil

	case "cart":
		items, err := a.carts.FetchCart(ctx)
		if err != nil {
			return err
		}
		for _, it := range items {
			fmt.Printf("%s  %-30s x%d @ %s\n", it.ProductID, it.ProductName, it.Quantity, it.UnitPrice.StringFixed(2))
		}
		fmt.Printf("total: %s\n", a.carts.Total().StringFixed(2))
		return nil

	case "cart-add":
		if len(args) != 2 {
			return fmt.Errorf("cart-add needs <productId> <delta>")
		}
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid product id: %w", err)
		}
		delta, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid delta: %w", err)
		}
		return a.carts.AddItem(ctx, id, delta)

	case "cart-remove":
		if len(args) != 1 {
			return fmt.Errorf("cart-remove needs <productId>")
		}
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid product id: %w", err)
		}
		return a.carts.RemoveItem(ctx, id)

	case "cart-clear":
		return a.carts.Clear(ctx)

	case "wishlist-toggle":
		if len(args) != 1 {
			return fmt.Errorf("wishlist-toggle needs <productId>")
		}
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid product id: %w", err)
		}
		product, err := a.shop.Product(ctx, id)
		if err != nil {
			return err
		}
		added, err := a.wishes.Toggle(ctx, *product)
		if err != nil {
			return err
		}
		if added {
			fmt.Printf("%s added to wishlist\n", product.Name)
		} else {
			fmt.Printf("%s removed from wishlist\n", product.Name)
		}
		return nil

	case "checkout":
		if len(args) != 5 {
			return fmt.Errorf("checkout needs <address1> <zipCode> <country> <city> <contactNumber>")
		}
		draft := models.OrderDraft{
			Address1:      args[0],
			ZipCode:       args[1],
			Country:       args[2],
			City:          args[3],
			ContactNumber: args[4],
		}
		result, err := a.flow.Submit(ctx, draft)
		if err != nil {
			return err
		}
		fmt.Printf("order %s: %s\n", result.OrderID, result.Message)
		return nil

	case "watch":
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		go a.monitor.Run(ctx)
		go a.feed.Run(ctx)

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		return nil

	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}
