package user

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,notblank,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ProfileRequest struct {
	Name  *string `json:"name" binding:"omitempty,notblank,max=50"`
	Email *string `json:"email" binding:"omitempty,email"`
}

func (r ProfileRequest) Update() ProfileUpdate {
	return ProfileUpdate{Name: r.Name, Email: r.Email}
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6,max=72"`
}

type StatusRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

type ListParams struct {
	Page  *int `form:"page" binding:"omitempty,min=1"`
	Limit *int `form:"limit" binding:"omitempty,min=1,max=100"`
}

func (p ListParams) Values() (page, limit int) {
	page, limit = 1, 10
	if p.Page != nil {
		page = *p.Page
	}
	if p.Limit != nil {
		limit = *p.Limit
	}
	return page, limit
}
