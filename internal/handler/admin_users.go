package handler

import (
    "context"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/vuongdq/game-platform/internal/middleware"
    "github.com/vuongdq/game-platform/internal/model"
    "github.com/vuongdq/game-platform/internal/service"
)

// UserAdmin is implemented by service.UserAdminService.
type UserAdmin interface {
    List(ctx context.Context) ([]model.User, error)
    Get(ctx context.Context, id uint64) (model.User, error)
    Create(ctx context.Context, actor string, in service.CreateUserInput) (model.User, error)
    Update(ctx context.Context, actor string, id uint64, in service.UpdateUserInput) (model.User, error)
    UpdateRole(ctx context.Context, actor string, id uint64, role string) (model.User, error)
    Delete(ctx context.Context, actor string, id uint64) error
}

// AdminUsersHandler serves /api/admin/users.  Every route is Admin-only.
type AdminUsersHandler struct {
    Users UserAdmin
}

func NewAdminUsersHandler(u UserAdmin) *AdminUsersHandler {
    return &AdminUsersHandler{Users: u}
}

// userDTO is the public view of a user; the password hash is never sent.
type userDTO struct {
    ID        uint64    `json:"id"`
    Username  string    `json:"username"`
    Email     string    `json:"email"`
    Role      string    `json:"role"`
    CreatedAt time.Time `json:"createdAt"`
    UpdatedAt time.Time `json:"updatedAt"`
}

func toUserDTO(u model.User) userDTO {
    return userDTO{
        ID:        u.ID,
        Username:  u.Username,
        Email:     u.Email,
        Role:      u.Role.String(),
        CreatedAt: u.CreatedAt,
        UpdatedAt: u.UpdatedAt,
    }
}

type roleReq struct {
    Role string `json:"role"`
}

func (h *AdminUsersHandler) List(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    users, err := h.Users.List(ctx)
    if err != nil {
        return respondError(c, err)
    }
    out := make([]userDTO, 0, len(users))
    for _, u := range users {
        out = append(out, toUserDTO(u))
    }
    return c.JSON(http.StatusOK, out)
}

func (h *AdminUsersHandler) Get(c echo.Context) error {
    id, ok := parseID(c)
    if !ok {
        return badID(c)
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Users.Get(ctx, id)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, toUserDTO(u))
}

func (h *AdminUsersHandler) Create(c echo.Context) error {
    var req service.CreateUserInput
    if err := c.Bind(&req); err != nil {
        return badBody(c)
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Users.Create(ctx, actor(c), req)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusCreated, toUserDTO(u))
}

// Update replaces email and role, and the password when one is given.
func (h *AdminUsersHandler) Update(c echo.Context) error {
    id, ok := parseID(c)
    if !ok {
        return badID(c)
    }
    var req service.UpdateUserInput
    if err := c.Bind(&req); err != nil {
        return badBody(c)
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if _, err := h.Users.Update(ctx, actor(c), id, req); err != nil {
        return respondError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

func (h *AdminUsersHandler) UpdateRole(c echo.Context) error {
    id, ok := parseID(c)
    if !ok {
        return badID(c)
    }
    var req roleReq
    if err := c.Bind(&req); err != nil {
        return badBody(c)
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if _, err := h.Users.UpdateRole(ctx, actor(c), id, req.Role); err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "User role updated successfully"})
}

func (h *AdminUsersHandler) Delete(c echo.Context) error {
    id, ok := parseID(c)
    if !ok {
        return badID(c)
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Users.Delete(ctx, actor(c), id); err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "User deleted successfully"})
}

func parseID(c echo.Context) (uint64, bool) {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    return id, err == nil && id > 0
}

func badID(c echo.Context) error {
    return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid user id"})
}

func actor(c echo.Context) string {
    id, _ := middleware.IdentityFrom(c)
    return id.Username
}
