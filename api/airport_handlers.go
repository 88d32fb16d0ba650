package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/Domenick1991/airadmin/internal/domain"
	"github.com/Domenick1991/airadmin/internal/service/airports"
	"github.com/gin-gonic/gin"
)

const noAirportForCode = "No airport found with the given IATA code."

func (h *Handler) listAirports(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		page = 1
	}

	result, err := h.airports.ListPage(c.Request.Context(), page)
	if err != nil {
		h.flashError(c, err, "")
		result = &domain.AirportPage{Airports: []domain.Airport{}, CurrentPage: 1}
	}
	h.render(c, http.StatusOK, "list_airports.html", "View Airports", gin.H{"Page": result})
}

func (h *Handler) addAirportForm(c *gin.Context) {
	h.render(c, http.StatusOK, "add_airport.html", "Add Airport", nil)
}

func (h *Handler) addAirport(c *gin.Context) {
	airport, err := h.airports.Create(c.Request.Context(), airports.CreateAirportInput{
		Name:     c.PostForm("name"),
		IATACode: c.PostForm("iatacode"),
		City:     c.PostForm("city"),
		Country:  c.PostForm("country"),
	})
	if err != nil {
		h.flashError(c, err, "")
		h.redirect(c, "/airports/add")
		return
	}

	h.flash.add(c, flashSuccess, fmt.Sprintf("Airport with ID %d added successfully!", airport.ID))
	h.flash.add(c, flashInfo, "Specified airport is the last row")
	h.redirect(c, "/airports")
}

func (h *Handler) airportChoices(c *gin.Context) []domain.Airport {
	list, err := h.airports.ListByName(c.Request.Context())
	if err != nil {
		h.flashError(c, err, "")
		return []domain.Airport{}
	}
	return list
}

func (h *Handler) removeAirportForm(c *gin.Context) {
	h.render(c, http.StatusOK, "remove_airport.html", "Remove Airport", gin.H{"Airports": h.airportChoices(c)})
}

func (h *Handler) removeAirportConfirm(c *gin.Context) {
	preview, err := h.airports.PreviewDelete(c.Request.Context(), c.PostForm("iatacode"))
	if err != nil {
		h.flashError(c, err, noAirportForCode)
		h.redirect(c, "/airports")
		return
	}
	h.render(c, http.StatusOK, "remove_airport.html", "Remove Airport", gin.H{
		"Airports": h.airportChoices(c),
		"Selected": preview,
	})
}

func (h *Handler) removeAirportFinal(c *gin.Context) {
	removal, err := h.airports.DeleteByCode(c.Request.Context(), c.PostForm("iatacode"))
	if err != nil {
		switch domain.OutcomeOf(err) {
		case domain.OutcomeConflict, domain.OutcomeValidation:
			h.flash.add(c, flashDanger, "Error removing airport: "+err.Error())
		default:
			h.flashError(c, err, noAirportForCode)
		}
		h.redirect(c, "/airports")
		return
	}

	msg := fmt.Sprintf("Airport removed successfully! Removed airport with ID originally %d", removal.AirportID)
	if removal.PurgedFlights > 0 {
		msg += fmt.Sprintf(" together with %d past flights", removal.PurgedFlights)
	}
	h.flash.add(c, flashSuccess, msg)
	h.redirect(c, "/airports")
}

func (h *Handler) getAirportByID(c *gin.Context) {
	data := gin.H{}
	if c.Request.Method == http.MethodPost {
		raw := strings.TrimSpace(c.PostForm("airportid"))
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.flash.add(c, flashDanger, fmt.Sprintf("Airport id %q is not a number.", raw))
		} else {
			airport, err := h.airports.GetByID(c.Request.Context(), id)
			if err != nil {
				h.flashError(c, err, fmt.Sprintf("Airport with id: %d does not exist.", id))
			} else {
				data["Airport"] = airport
			}
		}
	}
	h.render(c, http.StatusOK, "get_airport_by_id.html", "Get Airport By Id", data)
}

func (h *Handler) airportSummary(c *gin.Context) {
	summary, err := h.airports.Summary(c.Request.Context())
	if err != nil {
		h.flashError(c, err, "")
		summary = []domain.CountryCount{}
	}
	h.render(c, http.StatusOK, "airport_summary.html", "Airport Summary", gin.H{"Summary": summary})
}

// airportUpdateForm describes one single-field airport edit page.
type airportUpdateForm struct {
	slug    string
	label   string
	title   string
	formKey string
	current func(domain.Airport) string
	apply   func(svc airports.AirportUseCase) func(ctx context.Context, code, value string) (*domain.Airport, error)
}

var airportUpdateForms = []airportUpdateForm{
	{
		slug: "name", label: "name", title: "Update Airport Name", formKey: "new_name",
		current: func(a domain.Airport) string { return a.Name },
		apply:   func(svc airports.AirportUseCase) func(context.Context, string, string) (*domain.Airport, error) { return svc.UpdateName },
	},
	{
		slug: "iatacode", label: "iatacode", title: "Update Airport IATA Code", formKey: "new_iatacode",
		current: func(a domain.Airport) string { return a.IATACode },
		apply:   func(svc airports.AirportUseCase) func(context.Context, string, string) (*domain.Airport, error) { return svc.UpdateCode },
	},
	{
		slug: "city", label: "city", title: "Update Airport City", formKey: "new_city",
		current: func(a domain.Airport) string { return a.City },
		apply:   func(svc airports.AirportUseCase) func(context.Context, string, string) (*domain.Airport, error) { return svc.UpdateCity },
	},
	{
		slug: "country", label: "country", title: "Update Airport Country", formKey: "new_country",
		current: func(a domain.Airport) string { return a.Country },
		apply:   func(svc airports.AirportUseCase) func(context.Context, string, string) (*domain.Airport, error) { return svc.UpdateCountry },
	},
}

func (f airportUpdateForm) path() string {
	return "/airports/update_" + f.slug + "/"
}

func (h *Handler) renderAirportUpdate(c *gin.Context, f airportUpdateForm, selected *domain.Airport) {
	data := gin.H{
		"Airports": h.airportChoices(c),
		"Action":   f.path(),
		"Label":    f.label,
		"FormKey":  f.formKey,
	}
	if selected != nil {
		data["Selected"] = selected
		data["Current"] = f.current(*selected)
	}
	h.render(c, http.StatusOK, "update_airport.html", f.title, data)
}

func (h *Handler) updateAirportForm(f airportUpdateForm) gin.HandlerFunc {
	return func(c *gin.Context) {
		h.renderAirportUpdate(c, f, nil)
	}
}

// updateAirport handles both steps of the form: choosing an airport by
// code, then submitting the new value.
func (h *Handler) updateAirport(f airportUpdateForm) gin.HandlerFunc {
	return func(c *gin.Context) {
		code := c.PostForm("iatacode")
		value, submitted := c.GetPostForm(f.formKey)

		if !submitted {
			airport, err := h.airports.GetByCode(c.Request.Context(), code)
			if err != nil {
				h.flashError(c, err, noAirportForCode)
				h.renderAirportUpdate(c, f, nil)
				return
			}
			h.renderAirportUpdate(c, f, airport)
			return
		}

		airport, err := f.apply(h.airports)(c.Request.Context(), code, value)
		if err != nil {
			switch domain.OutcomeOf(err) {
			case domain.OutcomeNoChange:
				h.flash.add(c, flashWarning, fmt.Sprintf("Attempting to change the %s to the current %s. No changes made.", f.label, f.label))
			default:
				h.flashError(c, err, noAirportForCode)
			}
			h.redirect(c, f.path())
			return
		}

		h.flash.add(c, flashSuccess, fmt.Sprintf("Airport %s updated successfully for airport ID %d", f.label, airport.ID))
		h.redirect(c, "/airports")
	}
}
