package form

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/bluetecnologia/status_admin/internal/catalog"
	"github.com/bluetecnologia/status_admin/internal/models"
)

// Values are the editable fields of the service form.
type Values struct {
	Name   string `form:"name" json:"name" validate:"required,min=1,notreserved"`
	Status string `form:"status" json:"status" validate:"required,min=1,incatalog"`
}

// FieldErrors maps a field name to the message shown under it.
type FieldErrors map[string]string

var messages = map[string]map[string]string{
	"name": {
		"required":    "Serviço é obrigatório",
		"min":         "Serviço é obrigatório",
		"notreserved": "Serviço não pode ser 'general'",
	},
	"status": {
		"required":  "Status é obrigatório",
		"min":       "Status é obrigatório",
		"incatalog": "Status inválido, selecione uma opção da lista",
	},
}

// Schema validates Values. Status membership is checked against the
// catalog snapshot at validation time.
type Schema struct {
	catalog  *catalog.Catalog
	validate *validator.Validate
}

func NewSchema(cat *catalog.Catalog) *Schema {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("notreserved", func(fl validator.FieldLevel) bool {
		return fl.Field().String() != models.ReservedServiceName
	})
	_ = v.RegisterValidation("incatalog", func(fl validator.FieldLevel) bool {
		return cat.Contains(fl.Field().String())
	})
	return &Schema{catalog: cat, validate: v}
}

func (s *Schema) Catalog() *catalog.Catalog {
	return s.catalog
}

// Validate returns nil when in is acceptable.
func (s *Schema) Validate(in Values) FieldErrors {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldErrors{"": err.Error()}
	}
	out := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		msg, ok := messages[fe.Field()][fe.Tag()]
		if !ok {
			msg = fe.Error()
		}
		out[fe.Field()] = msg
	}
	return out
}
