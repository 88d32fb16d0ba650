package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Domenick1991/airadmin/internal/domain"
	"github.com/Domenick1991/airadmin/internal/service/users"
	"github.com/gin-gonic/gin"
)

// defaultSearchOperator matches the search form's behaviour when no
// operator is chosen: a case-insensitive regular expression.
const defaultSearchOperator = "~"

func (h *Handler) listUsers(c *gin.Context) {
	list, err := h.users.List(c.Request.Context())
	if err != nil {
		h.flashError(c, err, "")
		list = []domain.User{}
	} else if len(list) == 0 {
		h.flash.add(c, flashInfo, "Error, there are no rows in users")
	}
	h.render(c, http.StatusOK, "list_users.html", "List Contents of users", gin.H{"Users": list})
}

func (h *Handler) listSingleUser(c *gin.Context) {
	userID := c.Param("userid")
	list, err := h.users.ListByField(c.Request.Context(), domain.UserFieldID, userID)
	if err != nil {
		h.flashError(c, err, "")
		list = []domain.User{}
	}
	if err == nil && len(list) == 0 {
		h.flash.add(c, flashWarning, fmt.Sprintf("Error, there are no rows in users that match the attribute \"userid\" for the value %s", userID))
	}
	h.render(c, http.StatusOK, "list_users.html", "List Single userid for users", gin.H{"Users": list})
}

func (h *Handler) listConsolidatedUsers(c *gin.Context) {
	list, err := h.users.ListWithRoles(c.Request.Context())
	if err != nil {
		h.flashError(c, err, "")
		list = []domain.UserWithRole{}
	}
	h.render(c, http.StatusOK, "list_consolidated_users.html", "List Contents of Users join Userroles", gin.H{"Users": list})
}

func (h *Handler) userStats(c *gin.Context) {
	stats, err := h.users.RoleStats(c.Request.Context())
	if err != nil {
		h.flashError(c, err, "")
		stats = []domain.RoleCount{}
	}
	h.render(c, http.StatusOK, "list_user_stats.html", "User Stats", gin.H{"Stats": stats})
}

func (h *Handler) searchForm(c *gin.Context) {
	h.render(c, http.StatusOK, "search_users.html", "Search users", gin.H{
		"Fields":    []domain.UserField{domain.UserFieldID, domain.UserFieldFirstName, domain.UserFieldLastName, domain.UserFieldRoleID},
		"Operators": []domain.SearchOperator{domain.OpRegex, domain.OpEqual, domain.OpNotEqual, domain.OpLess, domain.OpGreater, domain.OpLike},
	})
}

func (h *Handler) searchUsers(c *gin.Context) {
	field := c.PostForm("searchfield")
	term := c.PostForm("searchterm")
	operator := c.DefaultPostForm("operator", defaultSearchOperator)

	found, err := h.users.Search(c.Request.Context(), field, operator, term)
	if err != nil {
		h.flashError(c, err, "")
		if domain.OutcomeOf(err) == domain.OutcomeValidation {
			h.redirect(c, "/users/search")
			return
		}
		h.redirect(c, "/")
		return
	}
	if len(found) == 0 {
		h.flash.add(c, flashInfo, fmt.Sprintf("No items found for search: %s, %s", field, term))
		h.redirect(c, "/")
		return
	}
	h.render(c, http.StatusOK, "list_users.html", "Users search by name", gin.H{"Users": found})
}

func (h *Handler) deleteUser(c *gin.Context) {
	userID := c.Param("userid")
	if err := h.users.Delete(c.Request.Context(), userID); err != nil {
		h.flashError(c, err, fmt.Sprintf("User %s does not exist.", userID))
	} else {
		h.revokeSessions(c, userID)
		h.flash.add(c, flashSuccess, fmt.Sprintf("User %s has been deleted", userID))
	}
	h.redirect(c, "/consolidated/users")
}

func (h *Handler) updateUserRedirect(c *gin.Context) {
	h.redirect(c, "/consolidated/users")
}

// updateUser applies whichever of firstname, lastname, userroleid and
// password the form carries. An empty password field means "keep".
func (h *Handler) updateUser(c *gin.Context) {
	userID, ok := c.GetPostForm("userid")
	if !ok || strings.TrimSpace(userID) == "" {
		userID = c.Param("userid")
	}
	if strings.TrimSpace(userID) == "" {
		h.flash.add(c, flashDanger, "Can not update without a userid")
		h.redirect(c, "/users")
		return
	}

	input := users.UpdateUserInput{UserID: userID}
	if v, ok := c.GetPostForm("firstname"); ok {
		input.FirstName = &v
	}
	if v, ok := c.GetPostForm("lastname"); ok {
		input.LastName = &v
	}
	if v, ok := c.GetPostForm("userroleid"); ok {
		roleID, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			h.flash.add(c, flashDanger, "User role must be a number")
			h.redirect(c, "/users/edit/"+url.PathEscape(userID))
			return
		}
		input.RoleID = &roleID
	}
	if v, ok := c.GetPostForm("password"); ok && v != "" {
		input.Password = &v
	}

	if err := h.users.Update(c.Request.Context(), input); err != nil {
		if domain.OutcomeOf(err) == domain.OutcomeNoChange {
			h.flash.add(c, flashWarning, "No updated values for user with userid")
			h.redirect(c, "/users")
			return
		}
		h.flashError(c, err, fmt.Sprintf("User %s does not exist.", userID))
		h.redirect(c, "/users")
		return
	}

	h.flash.add(c, flashSuccess, fmt.Sprintf("User %s updated", userID))
	h.redirect(c, "/users/"+url.PathEscape(userID))
}

func (h *Handler) editUserForm(c *gin.Context) {
	userID := c.Param("userid")
	user, err := h.users.Get(c.Request.Context(), userID)
	if err != nil {
		h.flashError(c, err, fmt.Sprintf("Error, there are no rows in users that match the attribute \"userid\" for the value %s", userID))
		h.redirect(c, "/users")
		return
	}

	roles, err := h.users.ListRoles(c.Request.Context())
	if err != nil {
		h.flashError(c, err, "")
		roles = []domain.UserRole{}
	}
	h.render(c, http.StatusOK, "edit_user.html", "Edit user details", gin.H{"User": user, "Roles": roles})
}

func (h *Handler) addUserForm(c *gin.Context) {
	roles, err := h.users.ListRoles(c.Request.Context())
	if err != nil {
		h.flashError(c, err, "")
		roles = []domain.UserRole{}
	}
	h.render(c, http.StatusOK, "add_user.html", "Add user details", gin.H{"Roles": roles})
}

func (h *Handler) addUser(c *gin.Context) {
	input := users.CreateUserInput{
		UserID:    c.PostForm("userid"),
		FirstName: c.PostForm("firstname"),
		LastName:  c.PostForm("lastname"),
		Password:  c.PostForm("password"),
	}
	if v := strings.TrimSpace(c.PostForm("userroleid")); v != "" {
		roleID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			h.flash.add(c, flashDanger, "User role must be a number")
			h.redirect(c, "/users/add")
			return
		}
		input.RoleID = roleID
	}

	user, err := h.users.Create(c.Request.Context(), input)
	if err != nil {
		h.flashError(c, err, "")
		h.redirect(c, "/users/add")
		return
	}

	h.flash.add(c, flashSuccess, fmt.Sprintf("User %s added", user.ID))
	h.redirect(c, "/consolidated/users")
}
