package server

import (
	"github.com/kataras/iris/v12"

	"github.com/ejg/cestas/internal/datamodels/product"
	"github.com/ejg/cestas/internal/middleware"
	"github.com/ejg/cestas/internal/service"
)

// NewWebApp builds the storefront application.
func NewWebApp(d *Deps) *iris.Application {
	app := iris.New()
	app.Use(middleware.RequestLogger())
	RegisterRoutes(app, d)
	return app
}

// RegisterRoutes registers the storefront API and the uploaded files.
func RegisterRoutes(app *iris.Application, d *Deps) {
	if dir := d.Config.Storage.Dir; dir != "" {
		app.HandleDir(d.Config.Storage.BaseURL, iris.Dir(dir))
	}

	api := app.Party("/api", middleware.Identify(d.Users))
	limited := middleware.RateLimit(d.Limiter)

	api.Get("/health", func(ctx iris.Context) {
		reply(ctx, iris.StatusOK, iris.Map{"code": 0, "msg": "ok"})
	})

	api.Post("/register", limited, func(ctx iris.Context) {
		var req struct {
			Name     string `json:"name"`
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			badRequest(ctx, "invalid request body")
			return
		}
		u, err := d.Users.Register(ctx.Request().Context(), req.Name, req.Email, req.Password)
		if err != nil {
			fail(ctx, err)
			return
		}
		reply(ctx, iris.StatusCreated, u)
	})

	api.Post("/login", limited, func(ctx iris.Context) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			badRequest(ctx, "invalid request body")
			return
		}
		token, u, err := d.Users.Login(ctx.Request().Context(), req.Email, req.Password)
		if err != nil {
			fail(ctx, err)
			return
		}
		reply(ctx, iris.StatusOK, iris.Map{"token": token, "user": u})
	})

	api.Get("/categories", func(ctx iris.Context) {
		list, err := d.Catalog.ListCategories(ctx.Request().Context())
		if err != nil {
			fail(ctx, err)
			return
		}
		reply(ctx, iris.StatusOK, iris.Map{"categories": list})
	})

	api.Get("/products", func(ctx iris.Context) {
		list, err := d.Catalog.ListProducts(ctx.Request().Context(), product.Filter{
			CategoryID: ctx.URLParam("category"),
			Name:       ctx.URLParam("q"),
		})
		if err != nil {
			fail(ctx, err)
			return
		}
		reply(ctx, iris.StatusOK, iris.Map{"products": list})
	})

	api.Get("/products/featured", func(ctx iris.Context) {
		list, err := d.Catalog.Featured(ctx.Request().Context())
		if err != nil {
			fail(ctx, err)
			return
		}
		reply(ctx, iris.StatusOK, iris.Map{"products": list})
	})

	api.Get("/products/{id:string}", func(ctx iris.Context) {
		p, err := d.Catalog.GetProduct(ctx.Request().Context(), ctx.Params().Get("id"))
		if err != nil {
			fail(ctx, err)
			return
		}
		reply(ctx, iris.StatusOK, iris.Map{"product": p})
	})

	user := api.Party("/", middleware.RequireUser())

	user.Get("/cart", func(ctx iris.Context) {
		c, err := d.Carts.Get(ctx.Request().Context(), identity(ctx))
		if err != nil {
			fail(ctx, err)
			return
		}
		reply(ctx, iris.StatusOK, iris.Map{"cart": c})
	})

	user.Post("/cart", func(ctx iris.Context) {
		var req struct {
			ProductID string `json:"productId"`
			Quantity  int64  `json:"quantity"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			badRequest(ctx, "invalid request body")
			return
		}
		c, err := d.Carts.Add(ctx.Request().Context(), identity(ctx), req.ProductID, req.Quantity)
		if err != nil {
			fail(ctx, err)
			return
		}
		reply(ctx, iris.StatusOK, iris.Map{"cart": c})
	})

	user.Delete("/cart", func(ctx iris.Context) {
		var req struct {
			ItemID string `json:"itemId"`
		}
		if err := ctx.ReadJSON(&req); err != nil || req.ItemID == "" {
			badRequest(ctx, "itemId is required")
			return
		}
		c, err := d.Carts.Remove(ctx.Request().Context(), identity(ctx), req.ItemID)
		if err != nil {
			fail(ctx, err)
			return
		}
		reply(ctx, iris.StatusOK, iris.Map{"cart": c})
	})

	user.Post("/orders", limited, func(ctx iris.Context) {
		var req struct {
			Items []service.LineItem `json:"items"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			badRequest(ctx, "invalid request body")
			return
		}
		o, err := d.Orders.CreateOrder(ctx.Request().Context(), identity(ctx), req.Items)
		if err != nil {
			fail(ctx, err)
			return
		}
		reply(ctx, iris.StatusCreated, o)
	})

	user.Get("/orders", func(ctx iris.Context) {
		list, err := d.Orders.ListOrders(ctx.Request().Context(), identity(ctx))
		if err != nil {
			fail(ctx, err)
			return
		}
		reply(ctx, iris.StatusOK, list)
	})
}
