package form

import (
	"strconv"
	"strings"

	"eventdash/internal/dates"
	"eventdash/internal/model"
)

// Field names used in ValidationError.Fields and Tracker.
const (
	FieldTitle    = "title"
	FieldDate     = "date"
	FieldLocation = "location"
	FieldImage    = "imageUrl"
	FieldName     = "name"
	FieldEmail    = "email"
	FieldPassword = "password"
	FieldConfirm  = "confirmPassword"
)

// EventForm is the create/edit event dialog. The date is typed as three
// separate inputs.
type EventForm struct {
	Title    string
	Day      string
	Month    string
	Year     string
	Location string
	ImageURL string
}

// EventFormFor pre-fills the edit dialog from an existing event.
func EventFormFor(ev model.Event) EventForm {
	f := EventForm{
		Title:    ev.Title,
		Location: ev.Location,
		ImageURL: ev.ImageURL,
	}
	if d, err := dates.Parse(ev.Date); err == nil {
		f.Day = strconv.Itoa(d.Day)
		f.Month = strconv.Itoa(d.Month)
		f.Year = strconv.Itoa(d.Year)
	}
	return f
}

// EventFields lists the inputs of the create form, or of the edit form when
// editing.
func EventFields(editing bool) []string {
	if editing {
		return []string{FieldDate, FieldLocation}
	}
	return []string{FieldTitle, FieldDate, FieldLocation, FieldImage}
}

// Validate checks the form. When editing, only date and location are
// checked because they are the only editable fields. today is the earliest
// acceptable date. On success it returns the normalized date.
func (f EventForm) Validate(editing bool, today model.Date) (model.Date, error) {
	errs := map[string]string{}

	if !editing && !checkVar(strings.TrimSpace(f.Title), "required") {
		errs[FieldTitle] = "Título é obrigatório"
	}

	d, msg := f.date(today)
	if msg != "" {
		errs[FieldDate] = msg
	}

	if !checkVar(strings.TrimSpace(f.Location), "required") {
		errs[FieldLocation] = "Local é obrigatório"
	}

	if !editing {
		img := strings.TrimSpace(f.ImageURL)
		switch {
		case !checkVar(img, "required"):
			errs[FieldImage] = "URL da imagem é obrigatória"
		case !checkVar(img, "httpurl"):
			errs[FieldImage] = "URL inválida"
		}
	}

	if len(errs) > 0 {
		return model.Date{}, &ValidationError{Fields: errs}
	}
	return d, nil
}

func (f EventForm) date(today model.Date) (model.Date, string) {
	day, month, year := strings.TrimSpace(f.Day), strings.TrimSpace(f.Month), strings.TrimSpace(f.Year)
	if day == "" || month == "" || year == "" {
		return model.Date{}, "Dia, mês e ano são obrigatórios"
	}

	dn, err1 := strconv.Atoi(day)
	mn, err2 := strconv.Atoi(month)
	yn, err3 := strconv.Atoi(year)
	if err1 != nil || err2 != nil || err3 != nil {
		return model.Date{}, "Data inválida"
	}

	switch {
	case !checkVar(dn, "min=1,max=31"):
		return model.Date{}, "Dia inválido (1-31)"
	case !checkVar(mn, "min=1,max=12"):
		return model.Date{}, "Mês inválido (1-12)"
	case !checkVar(yn, "min=1900,max=2100"):
		return model.Date{}, "Ano inválido"
	case !dates.Valid(yn, mn, dn):
		return model.Date{}, "Data inválida"
	}

	d := model.Date{Year: yn, Month: mn, Day: dn}
	if d.Before(today) {
		return model.Date{}, "Não é possível criar eventos no passado"
	}
	return d, ""
}

// LoginForm is the sign-in screen.
type LoginForm struct {
	Email    string `json:"email" validate:"required,simpleemail"`
	Password string `json:"password" validate:"required"`
}

func (f LoginForm) Validate() error {
	f.Email = strings.TrimSpace(f.Email)
	return checkStruct(f, map[string]string{
		"email.required":    "Por favor, preencha todos os campos.",
		"password.required": "Por favor, preencha todos os campos.",
	})
}

// RegisterForm is the account creation screen.
type RegisterForm struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,simpleemail"`
	Password string `json:"password" validate:"required,strongpassword"`
	Confirm  string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

func (f RegisterForm) Validate() error {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	return checkStruct(f, map[string]string{
		"name.required":  "Nome é obrigatório",
		"email.required": "E-mail é obrigatório",
	})
}
