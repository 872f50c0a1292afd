package handlers

import (
	"reflect"
	"strings"

	"github.com/anjiri1684/unimentor/services"
	"github.com/anjiri1684/unimentor/uploads"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type Options struct {
	FrontendURL       string
	GoogleCallbackURL string
}

// Handler serves the HTTP API on top of the core services.
type Handler struct {
	identity     *services.IdentityService
	mentors      *services.MentorService
	bookings     *services.BookingService
	transactions *services.TransactionService
	reviews      *services.ReviewService
	uploads      *uploads.Signer
	opts         Options
	log          *zap.Logger

	validate   *validator.Validate
	translator ut.Translator
}

func New(
	identity *services.IdentityService,
	mentors *services.MentorService,
	bookings *services.BookingService,
	transactions *services.TransactionService,
	reviews *services.ReviewService,
	signer *uploads.Signer,
	opts Options,
	log *zap.Logger,
) *Handler {
	validate, translator := newValidator()
	return &Handler{
		identity:     identity,
		mentors:      mentors,
		bookings:     bookings,
		transactions: transactions,
		reviews:      reviews,
		uploads:      signer,
		opts:         opts,
		log:          log,
		validate:     validate,
		translator:   translator,
	}
}

func newValidator() (*validator.Validate, ut.Translator) {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")

	validate := validator.New()
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return validate, translator
}

// parse decodes the request body into req and validates it. On failure the 400 response
// has already been written and the returned error is what the handler should return.
func (h *Handler) parse(c *fiber.Ctx, req interface{}) (bool, error) {
	if err := c.BodyParser(req); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := h.validate.Struct(req); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "Validation failed",
			"fields": h.validationErrors(err),
		})
	}
	return true, nil
}

func (h *Handler) validationErrors(err error) map[string]string {
	out := map[string]string{}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		out["_"] = err.Error()
		return out
	}
	for _, fe := range verrs {
		out[fe.Field()] = fe.Translate(h.translator)
	}
	return out
}
