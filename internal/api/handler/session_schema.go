package handler

import "github.com/servimarket/session-service/internal/core/domain"

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	Email       string `json:"email"        validate:"required,email"`
	Password    string `json:"password"     validate:"required,min=6"`
	DisplayName string `json:"display_name" validate:"required"`
	Role        string `json:"role"         validate:"required,oneof=client professional admin"`
}

// updateProfileRequest carries only the fields the caller wants to change.
// Omitted fields are left as they are.
type updateProfileRequest struct {
	Phone      *string `json:"phone"`
	Address    *string `json:"address"`
	Profession *string `json:"profession"`
	Bio        *string `json:"bio"`
	Avatar     *string `json:"avatar"`
}

func (r updateProfileRequest) toProfile() domain.Profile {
	partial := domain.Profile{}
	set := func(key string, v *string) {
		if v != nil {
			partial[key] = *v
		}
	}
	set(domain.ProfilePhone, r.Phone)
	set(domain.ProfileAddress, r.Address)
	set(domain.ProfileProfession, r.Profession)
	set(domain.ProfileBio, r.Bio)
	set(domain.ProfileAvatar, r.Avatar)
	return partial
}

type sessionResponse struct {
	Token    string           `json:"token,omitempty"`
	Identity *domain.Identity `json:"identity"`
}

type sessionStateResponse struct {
	Authenticated  bool             `json:"authenticated"`
	IsClient       bool             `json:"is_client"`
	IsProfessional bool             `json:"is_professional"`
	IsAdmin        bool             `json:"is_admin"`
	Identity       *domain.Identity `json:"identity"`
}
