package handler

import (
	"bytes"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"nexo-frontend/internal/permission"

	"github.com/labstack/echo/v4"
)

// CompanyHandler serves the tenant-scoped area. Every route sits
// behind the company scope gate and the tenant resolver; the active
// company travels to the backend through the tenant cookie.
type CompanyHandler struct {
	api Backend
}

// NewCompanyHandler creates the company area handler.
func NewCompanyHandler(api Backend) *CompanyHandler {
	return &CompanyHandler{api: api}
}

// Picker renders the company picker when no tenant is selected yet.
func (h *CompanyHandler) Picker(c echo.Context) error {
	return c.Render(http.StatusOK, "companies/dashboard", view(c, nil))
}

// Dashboard renders the active company's dashboard.
func (h *CompanyHandler) Dashboard(c echo.Context) error {
	if !auth(c).Permissions.Has(permission.CompanyRead) {
		return redirect(c, "/")
	}

	return h.renderDashboard(c, nil)
}

func (h *CompanyHandler) renderDashboard(c echo.Context, errors []string) error {
	envelope, err := h.api.FetchJSON(c.Request().Context(), "/company/dashboard", nil, c.Request())
	if err != nil || envelope.Error {
		return redirect(c, "/")
	}

	return c.Render(http.StatusOK, "companies/dashboard", view(c, echo.Map{
		"errors":   errors,
		"company":  envelope.Data["company"],
		"products": envelope.Data["products"],
	}))
}

// OpenCash opens the day's cash register. A rejection lands back on
// the dashboard, which reports the register state.
func (h *CompanyHandler) OpenCash(c echo.Context) error {
	perms := auth(c).Permissions
	if !perms.Has(permission.CompanyCashOpen) {
		return redirect(c, "/")
	}

	envelope, err := h.api.SendJSON(c.Request().Context(), "/company/cash/open", nil,
		map[string]string{"initial_cash": c.FormValue("initial_cash")}, c.Request())
	if err != nil {
		slog.WarnContext(c.Request().Context(), "cash open failed", "error", err)
		return redirect(c, "/")
	}

	if envelope.Error {
		if !perms.Has(permission.CompanyRead) {
			return redirect(c, "/")
		}
		return h.renderDashboard(c, envelope.Errors())
	}

	return redirect(c, "/companies/"+companyID(c))
}

// CloseCash closes the register and answers with the counted
// difference.
func (h *CompanyHandler) CloseCash(c echo.Context) error {
	if !auth(c).Permissions.Has(permission.CompanyCashClose) {
		return redirect(c, "/")
	}

	var body struct {
		Amount      string `json:"amount" form:"amount"`
		Description string `json:"description" form:"description"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusOK, echo.Map{"error": true, "errors": []string{"Solicitud invalida"}})
	}

	envelope, err := h.api.SendJSON(c.Request().Context(), "/company/cash/close", nil,
		map[string]string{
			"amount":      orDefault(body.Amount, "0"),
			"description": orDefault(body.Description, "No description"),
		}, c.Request())
	if err != nil {
		return c.JSON(http.StatusOK, echo.Map{
			"error":  true,
			"errors": []string{"Servicio no disponible, intenta mas tarde"},
		})
	}

	if envelope.Error {
		return apiErrors(c, envelope)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"error":               false,
		"invalid_description": envelope.Data["invalid_description"],
		"difference":          envelope.Data["difference"],
	})
}

// Products lists the company's inventory page by page.
func (h *CompanyHandler) Products(c echo.Context) error {
	if !auth(c).Permissions.Has(permission.CompanyProductsRead) {
		return redirect(c, "/system-alert/403")
	}

	page := currentPage(c)
	params := createParams(map[string]string{
		"page":    strconv.Itoa(page),
		"type_of": c.QueryParam("type"),
		"q":       c.QueryParam("q"),
	})

	envelope, err := h.api.FetchJSON(c.Request().Context(), "/company/products"+params, nil, c.Request())
	if err != nil || envelope.Error {
		return redirect(c, "/companies/"+companyID(c))
	}

	return c.Render(http.StatusOK, "companies/products/main", view(c, echo.Map{
		"items_quantity":        envelope.Data["items_quantity"],
		"products":              envelope.Data["products"],
		"low_products_quantity": envelope.Data["low_products_quantity"],
		"stock_value":           envelope.Data["stock_value"],
		"pagination":            envelope.Data["pagination"],
		"page":                  page,
		"query":                 c.QueryParams(),
		"next_query":            map[string]any{"page": page + 1},
	}))
}

// CreateProductForm renders the product form with the company's
// suppliers.
func (h *CompanyHandler) CreateProductForm(c echo.Context) error {
	if !auth(c).Permissions.Has(permission.CompanyProductsCreate) {
		return redirect(c, "/system-alert/403")
	}

	suppliers, _ := h.productSuppliers(c)
	return c.Render(http.StatusOK, "companies/products/create", view(c, echo.Map{
		"suppliers":   suppliers,
		"name":        "",
		"sku":         "",
		"identifier":  "",
		"category":    "",
		"description": "",
		"sale_price":  "",
		"sale_cost":   "",
		"stock":       "",
		"low_stock":   "",
		"bonus":       "",
	}))
}

// productForm is the product creation form, normalized to the
// backend's conventions before forwarding.
type productForm struct {
	Name           string `form:"name"`
	SKU            string `form:"sku"`
	Identifier     string `form:"identifier"`
	Category       string `form:"category"`
	Description    string `form:"description"`
	SupplierID     string `form:"supplier_id"`
	SalePrice      string `form:"sale_price"`
	SaleCost       string `form:"sale_cost"`
	TaxInclude     string `form:"tax_include"`
	IsBulk         string `form:"is_bulk"`
	IsService      string `form:"is_service"`
	Duration       string `form:"duration"`
	DurationType   string `form:"duration_type"`
	StaffID        string `form:"staff_id"`
	Stock          string `form:"stock"`
	TrackProduct   string `form:"track_product"`
	LowStock       string `form:"low_stock"`
	Bonus          string `form:"bonus"`
	ExpirationDate string `form:"expiration_date"`
	Weight         string `form:"weight"`
	Length         string `form:"length"`
	Width          string `form:"width"`
	Height         string `form:"height"`
}

func (f productForm) payload() map[string]string {
	duration := "0"
	isService := checkbox(f.IsService)
	if isService == "1" {
		duration = f.Duration
	}

	lowStock := "0"
	trackProduct := checkbox(f.TrackProduct)
	if trackProduct == "1" {
		lowStock = orDefault(f.LowStock, "5")
	}

	return map[string]string{
		"name":            f.Name,
		"sku":             f.SKU,
		"identifier":      f.Identifier,
		"category":        f.Category,
		"sale_price":      f.SalePrice,
		"sale_cost":       f.SaleCost,
		"staff_id":        f.StaffID,
		"duration_type":   f.DurationType,
		"weight":          orDefault(f.Weight, "0"),
		"length":          orDefault(f.Length, "0"),
		"width":           orDefault(f.Width, "0"),
		"height":          orDefault(f.Height, "0"),
		"bonus":           orDefault(f.Bonus, "0"),
		"stock":           orDefault(f.Stock, "0"),
		"description":     orDefault(f.Description, "No description"),
		"supplier_id":     orDefault(f.SupplierID, "none"),
		"tax_include":     checkbox(f.TaxInclude),
		"is_bulk":         checkbox(f.IsBulk),
		"is_service":      isService,
		"duration":        duration,
		"track_product":   trackProduct,
		"low_stock":       lowStock,
		"expiration_date": orDefault(f.ExpirationDate, today()),
	}
}

// CreateProduct registers a product and lands on its detail page. A
// rejection re-renders the form with the submitted values.
func (h *CompanyHandler) CreateProduct(c echo.Context) error {
	if !auth(c).Permissions.Has(permission.CompanyProductsCreate) {
		return redirect(c, "/system-alert/403")
	}

	var form productForm
	if err := c.Bind(&form); err != nil {
		return redirect(c, "/companies/"+companyID(c)+"/products")
	}

	envelope, err := h.api.SendJSON(c.Request().Context(), "/company/products/create", nil,
		form.payload(), c.Request())
	if err != nil {
		slog.WarnContext(c.Request().Context(), "product creation failed", "error", err)
		return redirect(c, "/companies/"+companyID(c)+"/products")
	}

	if envelope.Error {
		suppliers, _ := h.productSuppliers(c)
		return c.Render(http.StatusOK, "companies/products/create", view(c, echo.Map{
			"errors":      envelope.Errors(),
			"suppliers":   suppliers,
			"name":        form.Name,
			"sku":         form.SKU,
			"identifier":  form.Identifier,
			"supplier_id": form.SupplierID,
			"category":    form.Category,
			"description": form.Description,
			"sale_price":  form.SalePrice,
			"sale_cost":   form.SaleCost,
			"stock":       form.Stock,
			"low_stock":   form.LowStock,
			"bonus":       form.Bonus,
		}))
	}

	return redirect(c, "/companies/"+companyID(c)+"/products/read/"+stringValue(envelope.Data["product_id"]))
}

func (h *CompanyHandler) productSuppliers(c echo.Context) (any, error) {
	envelope, err := h.api.FetchJSON(c.Request().Context(), "/company/products/create", nil, c.Request())
	if err != nil {
		return nil, err
	}
	if envelope.Error {
		return nil, errEnvelope
	}
	return envelope.Data["suppliers"], nil
}

// ImportProductsForm renders the CSV import page.
func (h *CompanyHandler) ImportProductsForm(c echo.Context) error {
	if !auth(c).Permissions.Has(permission.CompanyProductsImportCSV) {
		return redirect(c, "/system-alert/403")
	}
	return c.Render(http.StatusOK, "companies/products/import", view(c, nil))
}

// ImportProducts streams an uploaded CSV to the backend importer.
func (h *CompanyHandler) ImportProducts(c echo.Context) error {
	if !auth(c).Permissions.Has(permission.CompanyProductsImportCSV) {
		return redirect(c, "/system-alert/403")
	}

	importError := func(message string) error {
		return c.Render(http.StatusOK, "companies/products/import", view(c, echo.Map{
			"errors": []string{message},
		}))
	}

	header, err := c.FormFile("file")
	if err != nil {
		return importError("No subio ningun archivo")
	}
	if !isCSV(header) {
		return importError("Archivo Invalido")
	}

	file, err := header.Open()
	if err != nil {
		return importError("Archivo Invalido")
	}
	defer file.Close()

	var buffer bytes.Buffer
	form := multipart.NewWriter(&buffer)
	if err := form.WriteField("company_id", companyID(c)); err != nil {
		return importError("Archivo Invalido")
	}
	part, err := form.CreateFormFile("file", header.Filename)
	if err != nil {
		return importError("Archivo Invalido")
	}
	if _, err := io.Copy(part, file); err != nil {
		return importError("Archivo Invalido")
	}
	if err := form.Close(); err != nil {
		return importError("Archivo Invalido")
	}

	envelope, err := h.api.SendForm(c.Request().Context(), "/company/products/import", nil,
		&buffer, form.FormDataContentType(), c.Request())
	if err != nil {
		slog.WarnContext(c.Request().Context(), "product import failed", "error", err)
		return importError("Servicio no disponible, intenta mas tarde")
	}

	if envelope.Error {
		return importError(envelope.Message)
	}

	return redirect(c, "/companies/"+companyID(c)+"/products")
}

// ReadProduct renders one product with its batches and codes.
func (h *CompanyHandler) ReadProduct(c echo.Context) error {
	if !auth(c).Permissions.Has(permission.CompanyProductsRead) {
		return redirect(c, "/system-alert/403")
	}

	envelope, err := h.api.FetchJSON(c.Request().Context(),
		"/company/products/get/"+c.Param("product_id"), nil, c.Request())
	if err != nil || envelope.Error {
		return redirect(c, "/companies/"+companyID(c)+"/products")
	}

	product, _ := envelope.Data["product"].(map[string]any)
	batchs, _ := envelope.Data["batchs"].([]any)

	dimensions := []string{"0", "0", "0"}
	if raw, ok := product["dimensions"].(string); ok {
		if parts := strings.Split(raw, "x"); len(parts) >= 3 {
			dimensions = parts
		}
	}

	return c.Render(http.StatusOK, "companies/products/read", view(c, echo.Map{
		"supplier":   envelope.Data["supplier"],
		"product":    product,
		"dimensions": dimensions,
		"batchs":     batchs,
		"batchs_len": len(batchs),
	}))
}

// ProductBatches acknowledges the batch listing endpoint.
func (h *CompanyHandler) ProductBatches(c echo.Context) error {
	if !auth(c).Permissions.Has(permission.CompanyProductsRead) {
		return redirect(c, "/system-alert/403")
	}
	return c.JSON(http.StatusOK, "batchs")
}

// CreateBatchForm renders the batch reception form for one product.
func (h *CompanyHandler) CreateBatchForm(c echo.Context) error {
	if !auth(c).Permissions.Has(permission.CompanyProductsCreate) {
		return redirect(c, "/system-alert/403")
	}

	product, err := h.batchProduct(c)
	if err != nil {
		return redirect(c, "/companies/"+companyID(c)+"/products")
	}

	return c.Render(http.StatusOK, "companies/products/batchs/create", view(c, echo.Map{
		"today_inp":       today(),
		"product":         product,
		"quantity":        "",
		"price":           "",
		"cost":            "",
		"expiration_date": today(),
	}))
}

// CreateBatch receives a product batch.
func (h *CompanyHandler) CreateBatch(c echo.Context) error {
	if !auth(c).Permissions.Has(permission.CompanyProductsCreate) {
		return redirect(c, "/system-alert/403")
	}

	productID := c.Param("product_id")
	receptionDate := orDefault(c.FormValue("reception_date"), today())
	expirationDate := orDefault(c.FormValue("expiration_date"), today())

	envelope, err := h.api.SendJSON(c.Request().Context(),
		"/company/products/"+productID+"/batchs/create", nil,
		map[string]string{
			"product_id":      productID,
			"quantity":        c.FormValue("quantity"),
			"bonus":           c.FormValue("bonus"),
			"price":           c.FormValue("price"),
			"cost":            c.FormValue("cost"),
			"reception_date":  receptionDate,
			"expiration_date": expirationDate,
		}, c.Request())
	if err != nil {
		slog.WarnContext(c.Request().Context(), "batch creation failed", "error", err)
		return redirect(c, "/companies/"+companyID(c)+"/products")
	}

	if envelope.Error {
		product, err := h.batchProduct(c)
		if err != nil {
			return redirect(c, "/companies/"+companyID(c)+"/products")
		}
		return c.Render(http.StatusOK, "companies/products/batchs/create", view(c, echo.Map{
			"errors":          envelope.Errors(),
			"quantity":        c.FormValue("quantity"),
			"price":           c.FormValue("price"),
			"cost":            c.FormValue("cost"),
			"today_inp":       receptionDate,
			"expiration_date": expirationDate,
			"product":         product,
		}))
	}

	return redirect(c, "/companies/"+companyID(c)+"/products/read/"+productID)
}

func (h *CompanyHandler) batchProduct(c echo.Context) (any, error) {
	envelope, err := h.api.FetchJSON(c.Request().Context(),
		"/company/products/"+c.Param("product_id")+"/batchs/create", nil, c.Request())
	if err != nil {
		return nil, err
	}
	if envelope.Error {
		return nil, errEnvelope
	}
	if product := envelope.Data["product"]; product != nil {
		return product, nil
	}
	return map[string]any{}, nil
}

// Sales lists the day's sales. Cashier-only accounts land directly on
// the point of sale.
func (h *CompanyHandler) Sales(c echo.Context) error {
	perms := auth(c).Permissions
	if !perms.Has(permission.CompanySalesRead) {
		if perms.Has(permission.CompanySalesCreate) {
			return redirect(c, "/companies/"+companyID(c)+"/sales/create")
		}
		return redirect(c, "/")
	}

	envelope, err := h.api.FetchJSON(c.Request().Context(), "/company/sales", nil, c.Request())
	if err != nil || envelope.Error {
		return redirect(c, "/")
	}

	return c.Render(http.StatusOK, "companies/sales/main", view(c, echo.Map{
		"sales": envelope.Data["sales"],
	}))
}

// CheckSale renders a sale's internal ticket.
func (h *CompanyHandler) CheckSale(c echo.Context) error {
	if !auth(c).Permissions.Has(permission.CompanySalesRead) {
		return redirect(c, "/")
	}
	return h.renderSaleDocument(c, "companies/sales/documents/internal-ticket")
}

// CreateSaleForm renders the point of sale.
func (h *CompanyHandler) CreateSaleForm(c echo.Context) error {
	if !auth(c).Permissions.Has(permission.CompanySalesCreate) {
		return redirect(c, "/")
	}
	return c.Render(http.StatusOK, "companies/sales/create", view(c, nil))
}

// SaleSuccess renders the printable ticket of a completed sale.
func (h *CompanyHandler) SaleSuccess(c echo.Context) error {
	if !auth(c).Permissions.Has(permission.CompanySalesCreate) {
		return redirect(c, "/")
	}
	return h.renderSaleDocument(c, "companies/sales/documents/ticket-to-print")
}

func (h *CompanyHandler) renderSaleDocument(c echo.Context, viewName string) error {
	envelope, err := h.api.FetchJSON(c.Request().Context(),
		"/company/sales/check_sale/"+c.Param("sale_id"), nil, c.Request())
	if err != nil || envelope.Error {
		return redirect(c, "/")
	}

	return c.Render(http.StatusOK, viewName, view(c, echo.Map{
		"company": envelope.Data["company"],
		"sale":    envelope.Data["sale"],
	}))
}

// SalesReports renders the paginated sales history.
func (h *CompanyHandler) SalesReports(c echo.Context) error {
	if !auth(c).Permissions.Has(permission.CompanySalesRead) {
		return redirect(c, "/")
	}

	page := currentPage(c)
	params := createParams(map[string]string{
		"page": strconv.Itoa(page),
		"q":    c.QueryParam("q"),
	})

	envelope, err := h.api.FetchJSON(c.Request().Context(), "/company/sales/reports"+params, nil, c.Request())
	if err != nil || envelope.Error {
		return redirect(c, "/")
	}

	return c.Render(http.StatusOK, "companies/sales/reports", view(c, echo.Map{
		"sales":      envelope.Data["sales"],
		"page":       page,
		"pagination": envelope.Data["pagination"],
		"query":      c.QueryParams(),
		"next_query": map[string]any{"page": page + 1},
	}))
}

// Finance renders the income and expense ledger. The page needs both
// read capabilities.
func (h *CompanyHandler) Finance(c echo.Context) error {
	if !auth(c).Permissions.HasAll(permission.CompanyIncomesRead, permission.CompanyExpensesRead) {
		return redirect(c, "/")
	}

	envelope, err := h.api.FetchJSON(c.Request().Context(), "/company/finance", nil, c.Request())
	if err != nil || envelope.Error {
		return redirect(c, "/")
	}

	return c.Render(http.StatusOK, "companies/finance/main", view(c, echo.Map{
		"finance":       envelope.Data["finance"],
		"finance_items": envelope.Data["items"],
	}))
}

// CreateFinanceForm renders the manual ledger entry form.
func (h *CompanyHandler) CreateFinanceForm(c echo.Context) error {
	if !auth(c).Permissions.HasAll(permission.CompanyIncomesCreate, permission.CompanyExpensesCreate) {
		return redirect(c, "/")
	}
	return c.Render(http.StatusOK, "companies/finance/create", view(c, echo.Map{
		"title":            "",
		"amount":           "",
		"expense_category": "",
		"subcategory":      "",
		"description":      "",
		"date":             today(),
	}))
}

// CreateFinance registers a manual income or expense entry.
func (h *CompanyHandler) CreateFinance(c echo.Context) error {
	if !auth(c).Permissions.HasAll(permission.CompanyIncomesCreate, permission.CompanyExpensesCreate) {
		return redirect(c, "/")
	}

	amount := c.FormValue("amount")
	title := c.FormValue("title")
	date := c.FormValue("date")

	envelope, err := h.api.SendJSON(c.Request().Context(), "/company/finance/create", nil,
		map[string]string{
			"description":      orDefault(c.FormValue("description"), "No Description"),
			"receipt_url":      "No URL",
			"subcategory":      orDefault(c.FormValue("subcategory"), "No Category"),
			"expense_category": orDefault(c.FormValue("expense_category"), "No Category"),
			"amount":           amount,
			"title":            title,
			"date":             date,
		}, c.Request())
	if err != nil {
		slog.WarnContext(c.Request().Context(), "finance entry failed", "error", err)
		return redirect(c, "/companies/"+companyID(c)+"/finance")
	}

	if envelope.Error {
		return c.Render(http.StatusOK, "companies/finance/create", view(c, echo.Map{
			"errors":           envelope.Details,
			"amount":           amount,
			"title":            title,
			"description":      c.FormValue("description"),
			"expense_category": c.FormValue("expense_category"),
			"subcategory":      c.FormValue("subcategory"),
			"date":             date,
		}))
	}

	return redirect(c, "/companies/"+companyID(c)+"/finance")
}

// Settings renders the company settings page.
func (h *CompanyHandler) Settings(c echo.Context) error {
	if !auth(c).Permissions.Has(permission.CompanySettingsRead) {
		return redirect(c, "/system-alert/403")
	}
	return c.Render(http.StatusOK, "companies/settings/main", view(c, nil))
}

// Suppliers lists the company's suppliers page by page.
func (h *CompanyHandler) Suppliers(c echo.Context) error {
	if !auth(c).Permissions.Has(permission.CompanySuppliersRead) {
		return redirect(c, "/system-alert/403")
	}

	page := currentPage(c)
	params := createParams(map[string]string{
		"page":    strconv.Itoa(page),
		"type_of": c.QueryParam("type"),
		"q":       c.QueryParam("q"),
	})

	envelope, err := h.api.FetchJSON(c.Request().Context(), "/company/suppliers"+params, nil, c.Request())
	if err != nil || envelope.Error {
		return redirect(c, "/")
	}

	return c.Render(http.StatusOK, "companies/suppliers/main", view(c, echo.Map{
		"suppliers":  envelope.Data["suppliers"],
		"pagination": envelope.Data["pagination"],
		"page":       page,
		"query":      c.QueryParams(),
		"next_query": map[string]any{"page": page + 1},
	}))
}

// CreateSupplierForm renders the supplier form.
func (h *CompanyHandler) CreateSupplierForm(c echo.Context) error {
	if !auth(c).Permissions.Has(permission.CompanySuppliersCreate) {
		return redirect(c, "/system-alert/403")
	}
	return c.Render(http.StatusOK, "companies/suppliers/create", view(c, echo.Map{
		"name":  "",
		"phone": "",
		"email": "",
	}))
}

// CreateSupplier registers a supplier and returns to the listing.
func (h *CompanyHandler) CreateSupplier(c echo.Context) error {
	if !auth(c).Permissions.Has(permission.CompanySuppliersCreate) {
		return redirect(c, "/system-alert/403")
	}

	_, err := h.api.SendJSON(c.Request().Context(), "/company/suppliers/create", nil,
		map[string]string{
			"name":          c.FormValue("name"),
			"reason_name":   orDefault(c.FormValue("reason_name"), "none"),
			"document":      orDefault(c.FormValue("document"), "none"),
			"email":         orDefault(c.FormValue("email"), "none"),
			"phone":         orDefault(c.FormValue("phone"), "none"),
			"domain":        orDefault(c.FormValue("domain"), "none"),
			"address":       orDefault(c.FormValue("address"), "none"),
			"supplier_type": orDefault(c.FormValue("supplier_type"), "none"),
			"is_active":     checkbox(c.FormValue("is_active")),
		}, c.Request())
	if err != nil {
		slog.WarnContext(c.Request().Context(), "supplier creation failed", "error", err)
	}

	return redirect(c, "/companies/"+companyID(c)+"/suppliers")
}

// CheckProductScan resolves a scanned identifier for the point of
// sale.
func (h *CompanyHandler) CheckProductScan(c echo.Context) error {
	if !auth(c).Permissions.Has(permission.CompanySalesCreate) {
		return redirect(c, "/")
	}

	var body struct {
		Identifier string `json:"identifier" form:"identifier"`
	}
	if err := c.Bind(&body); err != nil || body.Identifier == "" {
		return c.JSON(http.StatusOK, echo.Map{"error": true})
	}

	envelope, err := h.api.SendJSON(c.Request().Context(), "/company/sales/check_product_scan", nil,
		map[string]string{"identifier": body.Identifier}, c.Request())
	if err != nil {
		return c.JSON(http.StatusOK, echo.Map{"error": true, "msg": "Servicio no disponible, intenta mas tarde"})
	}

	if envelope.Error {
		return c.JSON(http.StatusOK, echo.Map{"error": true, "msg": envelope.Message})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"error": false,
		"data":  echo.Map{"product": envelope.Data["product"]},
	})
}

// CheckProductSearch resolves a free-text product search for the point
// of sale.
func (h *CompanyHandler) CheckProductSearch(c echo.Context) error {
	if !auth(c).Permissions.Has(permission.CompanySalesCreate) {
		return redirect(c, "/")
	}

	var body struct {
		Query string `json:"query" form:"query"`
	}
	if err := c.Bind(&body); err != nil || body.Query == "" {
		return c.JSON(http.StatusOK, echo.Map{"error": true})
	}

	envelope, err := h.api.SendJSON(c.Request().Context(), "/company/sales/check_product_search", nil,
		map[string]string{"query": body.Query}, c.Request())
	if err != nil || envelope.Error {
		return c.JSON(http.StatusOK, echo.Map{"error": true})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"error": false,
		"data":  echo.Map{"products": envelope.Data["products"]},
	})
}

// CreateSale registers a sale from the point of sale.
func (h *CompanyHandler) CreateSale(c echo.Context) error {
	if !auth(c).Permissions.Has(permission.CompanySalesCreate) {
		return redirect(c, "/")
	}

	var body struct {
		ClientID      string `json:"client_id" form:"client_id"`
		PaymentMethod string `json:"payment_method" form:"payment_method"`
		Items         []any  `json:"items"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusOK, echo.Map{"error": true, "errors": []string{"Solicitud invalida"}})
	}

	envelope, err := h.api.SendJSON(c.Request().Context(), "/company/sales/create", nil,
		map[string]any{
			"client_id":      orDefault(body.ClientID, "null"),
			"payment_method": body.PaymentMethod,
			"items":          body.Items,
		}, c.Request())
	if err != nil {
		return c.JSON(http.StatusOK, echo.Map{
			"error":  true,
			"errors": []string{"Servicio no disponible, intenta mas tarde"},
		})
	}

	if envelope.Error {
		return apiErrors(c, envelope)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"error":   false,
		"sale_id": envelope.Data["sale_id"],
	})
}

// cashFlowRanges are the windows the dashboard chart can ask for.
var cashFlowRanges = map[string]bool{
	"today": true,
	"7d":    true,
	"30d":   true,
	"6m":    true,
	"12m":   true,
}

// CashFlow answers the dashboard's cash flow chart for one of the
// known time windows.
func (h *CompanyHandler) CashFlow(c echo.Context) error {
	if !auth(c).Permissions.Has(permission.CompanySalesRead) {
		return redirect(c, "/")
	}

	window := c.Param("type")
	if !cashFlowRanges[window] {
		return redirect(c, "/")
	}

	envelope, err := h.api.SendJSON(c.Request().Context(), "/company/sales/flow", nil,
		map[string]string{"type": window}, c.Request())
	if err != nil || envelope.Error {
		return redirect(c, "/")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"error": false,
		"data":  envelope.Data,
	})
}

// currentPage reads the page query parameter, clamped to 1.
func currentPage(c echo.Context) int {
	page, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// today is the date the backend expects for defaulted date inputs.
func today() string {
	return time.Now().UTC().Format("2006-01-02")
}

// isCSV accepts a file only when both its name and its declared type
// look like CSV.
func isCSV(header *multipart.FileHeader) bool {
	if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
		return false
	}
	switch header.Header.Get("Content-Type") {
	case "text/csv", "application/vnd.ms-excel":
		return true
	}
	return false
}
