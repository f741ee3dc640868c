package router

import (
	"time"

	"atlascrm/internal/access"
	"atlascrm/internal/config"
	"atlascrm/internal/handler"
	"atlascrm/internal/infra"
	"atlascrm/internal/middleware"
	"atlascrm/internal/model"
	"atlascrm/internal/repository"
	"atlascrm/internal/service"
	"atlascrm/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Services is the business layer built on one database and Redis client.
type Services struct {
	Auth       service.AuthService
	Company    service.CompanyService
	Clients    service.ContactService
	Suppliers  service.ContactService
	Catalog    service.CatalogService
	Documents  service.DocumentService
	Conversion service.ConversionService
	Payments   service.PaymentService
	Ledger     service.LedgerService
	Projects   service.ProjectService
	Deletions  service.DeletionService
	Dashboard  service.DashboardService
}

// NewServices wires every service. rdb may be nil: jobs are then refused,
// payments run without the distributed lock and the dashboard is not cached.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func NewServices(cfg *config.Config, db *gorm.DB, rdb *redis.Client, storage infra.Storage, dispatcher *worker.Dispatcher) *Services {
	repos := repository.New(db)

	dashboard := service.NewDashboardService(repos.Reports, rdb)
	documents := service.NewDocumentService(repos, storage, dispatcher, dashboard)
	ledger := service.NewLedgerService(repos, dashboard)

	s := &Services{
		Auth:       service.NewAuthService(repos.Users, cfg),
		Company:    service.NewCompanyService(repos.Companies, repos.Users, storage),
		Clients:    service.NewClientService(repos.Clients, cfg.DefaultPhoneRegion),
		Suppliers:  service.NewSupplierService(repos.Suppliers, cfg.DefaultPhoneRegion),
		Catalog:    service.NewCatalogService(repos.Billboards, repos.Products),
		Documents:  documents,
		Conversion: service.NewConversionService(repos, storage, dashboard),
		Ledger:     ledger,
		Projects:   service.NewProjectService(repos.Projects, repos.Clients),
		Deletions:  service.NewDeletionService(repos.Deletions, documents, ledger),
		Dashboard:  dashboard,
	}
	if rdb != nil {
		s.Payments = service.NewPaymentService(repos, infra.NewLocker(rdb), dashboard)
	} else {
		s.Payments = service.NewPaymentService(repos, nil, dashboard)
	}
	return s
}

// New returns a configured Gin engine serving svcs.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, svcs *Services, smtp *infra.CircuitBreaker) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.AllowedOrigins()))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(rdb, "api", 1000, time.Minute))

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(svcs.Auth)
	usersH := handler.NewUsersHandler(svcs.Auth)
	companyH := handler.NewCompanyHandler(svcs.Company)
	clientsH := handler.NewContactsHandler(svcs.Clients)
	suppliersH := handler.NewContactsHandler(svcs.Suppliers)
	catalogH := handler.NewCatalogHandler(svcs.Catalog)
	deletionsH := handler.NewDeletionsHandler(svcs.Deletions)
	projectsH := handler.NewProjectsHandler(svcs.Projects)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, smtp))

	loginLimit := middleware.RateLimiter(rdb, "login", 20, time.Minute)
	public := r.Group("/v1")
	{
		public.POST("/auth/login", loginLimit, authH.Login)
		public.POST("/auth/refresh", authH.Refresh)
		public.POST("/companies", loginLimit, companyH.Register)
	}

	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	can := middleware.RequirePermission

	v1.GET("/dashboard", can(access.ResourceReport, access.ActionRead), handler.Dashboard(svcs.Dashboard))

	company := v1.Group("/company")
	{
		company.GET("", can(access.ResourceCompany, access.ActionRead), companyH.Get)
		company.PUT("", can(access.ResourceCompany, access.ActionUpdate), companyH.Update)
		company.GET("/logo", can(access.ResourceCompany, access.ActionRead), companyH.Logo)
		company.PUT("/logo", can(access.ResourceCompany, access.ActionUpdate), companyH.UploadLogo)
	}

	users := v1.Group("/users")
	{
		users.POST("", can(access.ResourceUser, access.ActionCreate), usersH.Create)
		users.GET("", can(access.ResourceUser, access.ActionRead), usersH.List)
	}

	crud(v1.Group("/clients"), access.ResourceClient, clientsH.Create, clientsH.List, clientsH.Get, clientsH.Update, clientsH.Delete)
	crud(v1.Group("/suppliers"), access.ResourceSupplier, suppliersH.Create, suppliersH.List, suppliersH.Get, suppliersH.Update, suppliersH.Delete)
	crud(v1.Group("/billboards"), access.ResourceBillboard,
		catalogH.CreateBillboard, catalogH.ListBillboards, catalogH.GetBillboard, catalogH.UpdateBillboard, catalogH.DeleteBillboard)

	products := v1.Group("/products")
	crud(products, access.ResourceProductService,
		catalogH.CreateProduct, catalogH.ListProducts, catalogH.GetProduct, catalogH.UpdateProduct, catalogH.DeleteProduct)
	products.PATCH("/:id/stock", can(access.ResourceProductService, access.ActionUpdate), catalogH.AdjustStock)
	products.GET("/:id/movements", can(access.ResourceProductService, access.ActionRead), catalogH.ListMovements)

	// ── Documents ────────────────────────────────────────────────────────────
	documentRoutes := []struct {
		path string
		kind string
	}{
		{"/quotes", model.KindQuote},
		{"/delivery-notes", model.KindDeliveryNote},
		{"/invoices", model.KindInvoice},
		{"/purchase-orders", model.KindPurchaseOrder},
	}
	for _, dr := range documentRoutes {
		h := handler.NewDocumentsHandler(dr.kind, svcs.Documents, svcs.Conversion, svcs.Payments, svcs.Deletions)
		res := access.Resource(dr.kind)
		g := v1.Group(dr.path)

		g.POST("", can(res, access.ActionCreate), h.Create)
		g.GET("", can(res, access.ActionRead), h.List)
		g.GET("/:id", can(res, access.ActionRead), h.Get)
		g.POST("/:id/duplicate", can(res, access.ActionCreate), h.Duplicate)
		g.GET("/:id/pdf", can(res, access.ActionRead), h.PDF)
		g.POST("/:id/send", can(res, access.ActionRead), h.Send)
		g.DELETE("/:id", can(res, access.ActionDelete), h.Delete)

		switch dr.kind {
		case model.KindQuote, model.KindDeliveryNote:
			g.POST("/:id/convert", can(access.ResourceInvoice, access.ActionCreate), h.Convert)
		case model.KindInvoice, model.KindPurchaseOrder:
			g.POST("/:id/payments", can(access.ResourcePayment, access.ActionCreate), h.Pay)
			g.GET("/:id/payments", can(access.ResourcePayment, access.ActionRead), h.Payments)
		}
	}

	// ── Ledger ───────────────────────────────────────────────────────────────
	for path, kind := range map[string]string{"/receipts": service.LedgerReceipt, "/dibursements": service.LedgerDibursement} {
		h := handler.NewLedgerHandler(kind, svcs.Ledger, svcs.Deletions)
		g := v1.Group(path)
		g.POST("", can(access.ResourceTransaction, access.ActionCreate), h.Create)
		g.GET("", can(access.ResourceTransaction, access.ActionRead), h.List)
		g.GET("/export", can(access.ResourceTransaction, access.ActionRead), h.Export)
		g.DELETE("/:id", can(access.ResourceTransaction, access.ActionDelete), h.Delete)
	}

	deletions := v1.Group("/deletion-requests", can(access.ResourceDeletion, access.ActionApprove))
	{
		deletions.GET("", deletionsH.ListPending)
		deletions.POST("/:id/approve", deletionsH.Approve)
		deletions.POST("/:id/reject", deletionsH.Reject)
	}

	projects := v1.Group("/projects")
	{
		projects.POST("", can(access.ResourceProject, access.ActionCreate), projectsH.Create)
		projects.GET("", can(access.ResourceProject, access.ActionRead), projectsH.List)
		projects.GET("/:id", can(access.ResourceProject, access.ActionRead), projectsH.Get)
		projects.PATCH("/:id/status", can(access.ResourceProject, access.ActionUpdate), projectsH.UpdateStatus)
	}

	// Swagger UI, only enabled outside production
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}

// crud registers the five standard routes of a resource.
func crud(g *gin.RouterGroup, res access.Resource, create, list, get, update, del gin.HandlerFunc) {
	can := middleware.RequirePermission
	g.POST("", can(res, access.ActionCreate), create)
	g.GET("", can(res, access.ActionRead), list)
	g.GET("/:id", can(res, access.ActionRead), get)
	g.PUT("/:id", can(res, access.ActionUpdate), update)
	g.DELETE("/:id", can(res, access.ActionDelete), del)
}
