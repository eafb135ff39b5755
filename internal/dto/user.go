package dto

// UserListQuery captures GET /auth/users parameters.
type UserListQuery struct {
	Role     string `form:"role"`
	Search   string `form:"search"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}
