package ui

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/AquaViinaDev/front-admin/internal/admin/catalog"
	custommw "github.com/AquaViinaDev/front-admin/internal/admin/httpserver/middleware"
	"github.com/AquaViinaDev/front-admin/internal/admin/observability"
	"github.com/AquaViinaDev/front-admin/internal/admin/products"
	"github.com/AquaViinaDev/front-admin/internal/admin/rbac"
	appsession "github.com/AquaViinaDev/front-admin/internal/admin/session"
	"github.com/AquaViinaDev/front-admin/internal/admin/templates/helpers"
	productstpl "github.com/AquaViinaDev/front-admin/internal/admin/templates/products"
)

const previewLimit = 160

var languageLabels = map[catalog.Lang]string{
	catalog.LangRU: "Русский",
	catalog.LangRO: "Română",
}

// ProductsIndex renders the product list page.
func (h *Handlers) ProductsIndex(w http.ResponseWriter, r *http.Request) {
	data, status := h.listPageData(r)
	templ.Handler(productstpl.Index(data), templ.WithStatus(status)).ServeHTTP(w, r)
}

// ProductsTable renders the list table fragment for htmx searches.
func (h *Handlers) ProductsTable(w http.ResponseWriter, r *http.Request) {
	data, status := h.listPageData(r)
	templ.Handler(productstpl.Table(data), templ.WithStatus(status)).ServeHTTP(w, r)
}

func (h *Handlers) listPageData(r *http.Request) (productstpl.ListPageData, int) {
	ctx := r.Context()
	base := custommw.BasePathFromContext(ctx)
	lang := custommw.LanguageFromContext(ctx)
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	data := productstpl.ListPageData{
		Lang:       lang,
		Query:      query,
		SearchURL:  joinBasePath(base, "/products"),
		TableURL:   joinBasePath(base, "/products/table"),
		NewURL:     joinBasePath(base, "/products/new"),
		CSRFField:  custommw.CSRFFormField,
		CSRFToken:  custommw.CSRFTokenFromContext(ctx),
		CanWrite:   custommw.Can(ctx, rbac.CapCatalogWrite),
		CanDelete:  custommw.Can(ctx, rbac.CapCatalogDelete),
		EmptyLabel: "Товаров пока нет.",
	}
	if query != "" {
		data.EmptyLabel = "Ничего не найдено."
	}

	env, err := h.products.ListAll(ctx, tokenFrom(r))
	if err != nil {
		observability.FromContext(ctx).Error("products: list failed", zap.Error(err))
		data.Error = backendMessage(err, "Не удалось загрузить товары.")
		return data, http.StatusBadGateway
	}

	for i := range env.Items {
		rec := &env.Items[i]
		state := h.schema.BuildInitialState(rec)
		name := displayText(state.Name, lang)
		if query != "" && !helpers.ContainsFold(state.Name.RU, query) && !helpers.ContainsFold(state.Name.RO, query) {
			continue
		}
		data.Rows = append(data.Rows, h.productRow(base, lang, rec, state, name, query))
	}
	data.Total = len(data.Rows)
	return data, http.StatusOK
}

func (h *Handlers) productRow(base string, lang catalog.Lang, rec *catalog.Record, state catalog.ProductFormState, name, query string) productstpl.ProductRow {
	id := rec.IDString()
	row := productstpl.ProductRow{
		ID:        id,
		Name:      helpers.HighlightSegments(name, query),
		Brand:     displayText(state.Brand, lang),
		Type:      displayText(state.Type, lang),
		Price:     helpers.PriceLabel(state.Price),
		InStock:   state.InStock,
		Preview:   helpers.DescriptionPreview(displayText(state.Description, lang), previewLimit),
		EditURL:   productPath(base, id, "edit"),
		CopyURL:   joinBasePath(base, "/products/new") + "?copy=" + urlQueryEscape(id),
		DeleteURL: productPath(base, id, "delete"),
	}
	if _, ok := catalog.FormatOptionalNumeric(state.OldPrice); ok {
		row.OldPrice = helpers.PriceLabel(state.OldPrice)
	}
	if images := rec.ImagePaths(); len(images) > 0 {
		row.ImageURL = helpers.ResolveImageURL(h.apiBaseURL, images[0])
	}
	for _, c := range state.Characteristics.Get(lang).Filled() {
		row.Characteristics = append(row.Characteristics, productstpl.CharacteristicItem{Label: c.Key, Value: c.Value})
	}
	return row
}

// ProductNew renders the add form. A copy query parameter prefills it from an
// existing product.
func (h *Handlers) ProductNew(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sourceID := strings.TrimSpace(r.URL.Query().Get("copy"))
	if sourceID == "" {
		data := h.formPageData(r, productstpl.ModeCreate, "", h.schema.EmptyState(), nil)
		templ.Handler(productstpl.Form(data)).ServeHTTP(w, r)
		return
	}

	rec, err := h.products.Get(ctx, tokenFrom(r), sourceID)
	if err != nil {
		observability.FromContext(ctx).Warn("products: copy source unavailable", zap.String("product_id", sourceID), zap.Error(err))
		data := h.formPageData(r, productstpl.ModeCreate, "", h.schema.EmptyState(), nil)
		data.Error = backendMessage(err, "Не удалось загрузить товар для копирования.")
		templ.Handler(productstpl.Form(data)).ServeHTTP(w, r)
		return
	}

	state := h.schema.BuildInitialState(rec)
	data := h.formPageData(r, productstpl.ModeCopy, "", state, h.imagePreviews(rec.ImagePaths(), nil))
	templ.Handler(productstpl.Form(data)).ServeHTTP(w, r)
}

// ProductCreate validates the add form and submits it to the catalog backend.
func (h *Handlers) ProductCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.FromContext(ctx)

	sub, err := h.decodeProductForm(r, imagesFieldExisting)
	if err != nil {
		logger.Warn("products: decode form failed", zap.Error(err))
		data := h.formPageData(r, productstpl.ModeCreate, "", h.schema.EmptyState(), nil)
		data.Error = "Не удалось прочитать форму. Проверьте размер файлов и попробуйте ещё раз."
		templ.Handler(productstpl.Form(data), templ.WithStatus(http.StatusBadRequest)).ServeHTTP(w, r)
		return
	}

	mode := productstpl.ModeCreate
	if r.PostForm.Get(imagesFieldExisting+".present") != "" {
		mode = productstpl.ModeCopy
	}
	rerender := func(status int, message string) {
		data := h.formPageData(r, mode, "", sub.State, h.imagePreviews(sub.Offered, sub.Images.ExistingImages))
		data.Error = message
		data.Errors = sub.Errors
		templ.Handler(productstpl.Form(data), templ.WithStatus(status)).ServeHTTP(w, r)
	}

	if len(sub.Errors) > 0 {
		rerender(http.StatusUnprocessableEntity, "Исправьте ошибки в форме.")
		return
	}

	payload, err := catalog.BuildFormData(sub.State, sub.Images)
	if err != nil {
		logger.Error("products: build payload failed", zap.Error(err))
		rerender(http.StatusInternalServerError, "Не удалось подготовить данные товара.")
		return
	}
	rec, err := h.products.Create(ctx, tokenFrom(r), payload)
	if err != nil {
		logger.Error("products: create failed", zap.Error(err))
		rerender(http.StatusBadGateway, backendMessage(err, "Не удалось сохранить товар."))
		return
	}

	logger.Info("products: created", zap.String("product_id", rec.IDString()))
	custommw.AddFlash(ctx, appsession.FlashSuccess, "Товар «"+strings.TrimSpace(sub.State.Name.RU)+"» создан.")
	http.Redirect(w, r, joinBasePath(custommw.BasePathFromContext(ctx), "/products"), http.StatusSeeOther)
}

// ProductEdit renders the edit form of a stored product.
func (h *Handlers) ProductEdit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	rec, err := h.products.Get(ctx, tokenFrom(r), id)
	if err != nil {
		h.renderLoadError(w, r, err)
		return
	}
	state := h.schema.BuildInitialState(rec)
	paths := rec.ImagePaths()
	data := h.formPageData(r, productstpl.ModeEdit, id, state, h.imagePreviews(paths, paths))
	templ.Handler(productstpl.Form(data)).ServeHTTP(w, r)
}

// ProductUpdate validates the edit form and replaces the stored product.
func (h *Handlers) ProductUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.FromContext(ctx)
	id := chi.URLParam(r, "id")

	sub, err := h.decodeProductForm(r, imagesFieldKeep)
	if err != nil {
		logger.Warn("products: decode form failed", zap.String("product_id", id), zap.Error(err))
		http.Error(w, "Не удалось прочитать форму.", http.StatusBadRequest)
		return
	}
	rerender := func(status int, message string) {
		data := h.formPageData(r, productstpl.ModeEdit, id, sub.State, h.imagePreviews(sub.Offered, sub.Images.ImagesToKeep))
		data.Error = message
		data.Errors = sub.Errors
		templ.Handler(productstpl.Form(data), templ.WithStatus(status)).ServeHTTP(w, r)
	}

	if len(sub.Errors) > 0 {
		rerender(http.StatusUnprocessableEntity, "Исправьте ошибки в форме.")
		return
	}
	if sub.Images.ImagesToKeep == nil {
		sub.Images.ImagesToKeep = []string{}
	}

	payload, err := catalog.BuildFormData(sub.State, sub.Images)
	if err != nil {
		logger.Error("products: build payload failed", zap.Error(err))
		rerender(http.StatusInternalServerError, "Не удалось подготовить данные товара.")
		return
	}
	if _, err := h.products.Update(ctx, tokenFrom(r), id, payload, true); err != nil {
		if errors.Is(err, products.ErrProductNotFound) {
			h.renderLoadError(w, r, err)
			return
		}
		logger.Error("products: update failed", zap.String("product_id", id), zap.Error(err))
		rerender(http.StatusBadGateway, backendMessage(err, "Не удалось сохранить изменения."))
		return
	}

	logger.Info("products: updated", zap.String("product_id", id))
	custommw.AddFlash(ctx, appsession.FlashSuccess, "Изменения сохранены.")
	http.Redirect(w, r, joinBasePath(custommw.BasePathFromContext(ctx), "/products"), http.StatusSeeOther)
}

// ProductDelete removes a product. htmx callers receive an empty row and a
// toast; plain form posts are redirected back to the list.
func (h *Handlers) ProductDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.FromContext(ctx)
	id := chi.URLParam(r, "id")
	isHTMX := custommw.IsHTMXRequest(ctx)
	listURL := joinBasePath(custommw.BasePathFromContext(ctx), "/products")

	_, err := h.products.Delete(ctx, tokenFrom(r), id)
	if err != nil {
		logger.Error("products: delete failed", zap.String("product_id", id), zap.Error(err))
		message := backendMessage(err, "Не удалось удалить товар.")
		status := http.StatusBadGateway
		if errors.Is(err, products.ErrProductNotFound) {
			message = "Товар не найден."
			status = http.StatusNotFound
		}
		if isHTMX {
			custommw.TriggerToast(w, "danger", message)
			w.WriteHeader(status)
			return
		}
		custommw.AddFlash(ctx, appsession.FlashError, message)
		http.Redirect(w, r, listURL, http.StatusSeeOther)
		return
	}

	logger.Info("products: deleted", zap.String("product_id", id))
	if isHTMX {
		custommw.TriggerToast(w, "success", "Товар удалён.")
		w.WriteHeader(http.StatusOK)
		return
	}
	custommw.AddFlash(ctx, appsession.FlashSuccess, "Товар удалён.")
	http.Redirect(w, r, listURL, http.StatusSeeOther)
}

func (h *Handlers) renderLoadError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, products.ErrProductNotFound) {
		http.Error(w, "Товар не найден.", http.StatusNotFound)
		return
	}
	observability.FromContext(r.Context()).Error("products: load failed", zap.Error(err))
	http.Error(w, backendMessage(err, "Не удалось загрузить товар."), http.StatusBadGateway)
}

func (h *Handlers) formPageData(r *http.Request, mode, id string, state catalog.ProductFormState, images []productstpl.ImagePreview) productstpl.FormPageData {
	ctx := r.Context()
	base := custommw.BasePathFromContext(ctx)

	data := productstpl.FormPageData{
		Mode:         mode,
		Action:       joinBasePath(base, "/products"),
		CancelURL:    joinBasePath(base, "/products"),
		CSRFField:    custommw.CSRFFormField,
		CSRFToken:    custommw.CSRFTokenFromContext(ctx),
		Price:        state.Price,
		OldPrice:     state.OldPrice,
		InStock:      state.InStock,
		CategorieIDs: joinIDs(state.CategorieIDs),
		Images:       images,
	}
	switch mode {
	case productstpl.ModeEdit:
		data.Title = "Редактирование товара"
		data.Action = productPath(base, id, "")
		data.ImagesField = imagesFieldKeep
	case productstpl.ModeCopy:
		data.Title = "Копия товара"
		data.ImagesField = imagesFieldExisting
	default:
		data.Title = "Новый товар"
	}

	for _, lang := range catalog.Languages {
		known := make(map[string]struct{}, h.schema.Len())
		for _, key := range h.schema.Keys(lang) {
			known[key] = struct{}{}
		}
		fields := productstpl.LanguageFields{
			Lang:        lang,
			Label:       languageLabels[lang],
			Name:        state.Name.Get(lang),
			Brand:       state.Brand.Get(lang),
			Description: state.Description.Get(lang),
			Type:        state.Type.Get(lang),
		}
		for _, c := range state.Characteristics.Get(lang) {
			_, inSchema := known[c.Key]
			fields.Characteristics = append(fields.Characteristics, productstpl.CharacteristicField{
				Key:   c.Key,
				Label: c.Key,
				Value: c.Value,
				Extra: !inSchema,
			})
		}
		data.Languages = append(data.Languages, fields)
	}
	return data
}

// imagePreviews lists offered image paths. A nil selection checks every image.
func (h *Handlers) imagePreviews(paths, selected []string) []productstpl.ImagePreview {
	chosen := make(map[string]struct{}, len(selected))
	for _, p := range selected {
		chosen[p] = struct{}{}
	}
	out := make([]productstpl.ImagePreview, 0, len(paths))
	for _, p := range paths {
		_, checked := chosen[p]
		out = append(out, productstpl.ImagePreview{
			Path:    p,
			URL:     helpers.ResolveImageURL(h.apiBaseURL, p),
			Checked: selected == nil || checked,
		})
	}
	return out
}

func displayText(m catalog.Multilang, lang catalog.Lang) string {
	if text := strings.TrimSpace(m.Get(lang)); text != "" {
		return text
	}
	return strings.TrimSpace(m.RU)
}

func joinIDs(ids []int64) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	return strings.Join(parts, ", ")
}
