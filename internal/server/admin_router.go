package server

import (
	"github.com/kataras/iris/v12"

	"github.com/ejg/cestas/internal/middleware"
	"github.com/ejg/cestas/internal/service"
)

// NewAdminApp builds the back-office application.
func NewAdminApp(d *Deps) *iris.Application {
	app := iris.New()
	app.Use(middleware.RequestLogger())
	RegisterAdminRoutes(app, d)
	return app
}

// RegisterAdminRoutes registers /api/admin. Every route answers 401 without a
// valid token and 403 for non-admins before any handler runs.
func RegisterAdminRoutes(app *iris.Application, d *Deps) {
	api := app.Party("/api/admin", middleware.Identify(d.Users), middleware.RequireAdmin())

	// ---------- orders ----------

	api.Get("/orders", func(ctx iris.Context) {
		list, err := d.Orders.SearchOrders(ctx.Request().Context(), identity(ctx), ctx.URLParam("search"))
		if err != nil {
			fail(ctx, err)
			return
		}
		reply(ctx, iris.StatusOK, iris.Map{"orders": list})
	})

	api.Get("/orders/{id:string}", func(ctx iris.Context) {
		o, err := d.Orders.GetOrder(ctx.Request().Context(), identity(ctx), ctx.Params().Get("id"))
		if err != nil {
			fail(ctx, err)
			return
		}
		reply(ctx, iris.StatusOK, iris.Map{"order": o})
	})

	api.Patch("/orders/{id:string}", func(ctx iris.Context) {
		var req struct {
			Status string `json:"status"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			badRequest(ctx, "invalid request body")
			return
		}
		o, err := d.Orders.UpdateStatus(ctx.Request().Context(), identity(ctx), ctx.Params().Get("id"), req.Status)
		if err != nil {
			fail(ctx, err)
			return
		}
		reply(ctx, iris.StatusOK, o)
	})

	var bodyLimit int64
	uploadLimit := func(ctx iris.Context) { ctx.Next() }
	if maxUpload := d.Config.Storage.MaxUploadMB << 20; maxUpload > 0 {
		// Room for the multipart envelope around the file itself.
		bodyLimit = maxUpload + 1<<20
		uploadLimit = iris.LimitRequestBodySize(bodyLimit)
	}

	api.Post("/orders/{id:string}/files", uploadLimit, func(ctx iris.Context) {
		file, header, err := ctx.FormFile("file")
		if err != nil {
			if bodyTooLarge(ctx, err, bodyLimit) {
				fail(ctx, service.ErrFileTooLarge)
				return
			}
			badRequest(ctx, "file is required")
			return
		}
		defer file.Close()

		files, err := d.Files.Attach(ctx.Request().Context(), identity(ctx), ctx.Params().Get("id"), service.Upload{
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Body:        file,
		})
		if err != nil {
			fail(ctx, err)
			return
		}
		reply(ctx, iris.StatusCreated, iris.Map{"files": files})
	})

	api.Delete("/orders/{id:string}/files/{fileId:string}", func(ctx iris.Context) {
		files, err := d.Files.Remove(ctx.Request().Context(), identity(ctx), ctx.Params().Get("id"), ctx.Params().Get("fileId"))
		if err != nil {
			fail(ctx, err)
			return
		}
		reply(ctx, iris.StatusOK, iris.Map{"files": files})
	})

	// ---------- catalog ----------

	api.Get("/products", func(ctx iris.Context) {
		list, err := d.Catalog.AdminListProducts(ctx.Request().Context(), identity(ctx))
		if err != nil {
			fail(ctx, err)
			return
		}
		reply(ctx, iris.StatusOK, iris.Map{"products": list})
	})

	api.Post("/products", func(ctx iris.Context) {
		var req service.ProductInput
		if err := ctx.ReadJSON(&req); err != nil {
			badRequest(ctx, "invalid request body")
			return
		}
		p, err := d.Catalog.CreateProduct(ctx.Request().Context(), identity(ctx), req)
		if err != nil {
			fail(ctx, err)
			return
		}
		reply(ctx, iris.StatusCreated, p)
	})

	api.Get("/products/{id:string}", func(ctx iris.Context) {
		p, err := d.Catalog.AdminGetProduct(ctx.Request().Context(), identity(ctx), ctx.Params().Get("id"))
		if err != nil {
			fail(ctx, err)
			return
		}
		reply(ctx, iris.StatusOK, iris.Map{"product": p})
	})

	api.Patch("/products/{id:string}", func(ctx iris.Context) {
		var req service.ProductPatch
		if err := ctx.ReadJSON(&req); err != nil {
			badRequest(ctx, "invalid request body")
			return
		}
		p, err := d.Catalog.UpdateProduct(ctx.Request().Context(), identity(ctx), ctx.Params().Get("id"), req)
		if err != nil {
			fail(ctx, err)
			return
		}
		reply(ctx, iris.StatusOK, p)
	})

	api.Delete("/products/{id:string}", func(ctx iris.Context) {
		p, err := d.Catalog.DeleteProduct(ctx.Request().Context(), identity(ctx), ctx.Params().Get("id"))
		if err != nil {
			fail(ctx, err)
			return
		}
		reply(ctx, iris.StatusOK, p)
	})

	api.Get("/categories", func(ctx iris.Context) {
		list, err := d.Catalog.ListCategories(ctx.Request().Context())
		if err != nil {
			fail(ctx, err)
			return
		}
		reply(ctx, iris.StatusOK, iris.Map{"categories": list})
	})

	api.Post("/categories", func(ctx iris.Context) {
		var req struct {
			Name string `json:"name"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			badRequest(ctx, "invalid request body")
			return
		}
		c, err := d.Catalog.CreateCategory(ctx.Request().Context(), identity(ctx), req.Name)
		if err != nil {
			fail(ctx, err)
			return
		}
		reply(ctx, iris.StatusCreated, c)
	})

	// ---------- users ----------

	api.Get("/users", func(ctx iris.Context) {
		list, err := d.Users.ListAdmins(ctx.Request().Context(), identity(ctx))
		if err != nil {
			fail(ctx, err)
			return
		}
		reply(ctx, iris.StatusOK, iris.Map{"users": list})
	})

	api.Post("/users", func(ctx iris.Context) {
		var req struct {
			Email string `json:"email"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			badRequest(ctx, "invalid request body")
			return
		}
		u, err := d.Users.Promote(ctx.Request().Context(), identity(ctx), req.Email)
		if err != nil {
			fail(ctx, err)
			return
		}
		reply(ctx, iris.StatusOK, u)
	})

	api.Delete("/users/{id:string}", func(ctx iris.Context) {
		u, err := d.Users.Demote(ctx.Request().Context(), identity(ctx), ctx.Params().Get("id"))
		if err != nil {
			fail(ctx, err)
			return
		}
		reply(ctx, iris.StatusOK, u)
	})

	// ---------- monitoring ----------

	api.Get("/metrics", func(ctx iris.Context) {
		reply(ctx, iris.StatusOK, service.GetMonitor().GetStats())
	})
}
