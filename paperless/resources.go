package paperless

import "context"

// TagsService provides access to /api/tags/.
type TagsService struct {
	crud[Tag, TagListQuery, TagRequest, TagPatch]
}

func newTagsService(t *Transport) *TagsService {
	return &TagsService{newCrud[Tag, TagListQuery, TagRequest, TagPatch](t, "/api/tags/")}
}

// CorrespondentsService provides access to /api/correspondents/.
type CorrespondentsService struct {
	crud[Correspondent, NameQuery, NamedRequest, NamedPatch]
}

func newCorrespondentsService(t *Transport) *CorrespondentsService {
	return &CorrespondentsService{newCrud[Correspondent, NameQuery, NamedRequest, NamedPatch](t, "/api/correspondents/")}
}

// DocumentTypesService provides access to /api/document_types/.
type DocumentTypesService struct {
	crud[DocumentType, NameQuery, NamedRequest, NamedPatch]
}

func newDocumentTypesService(t *Transport) *DocumentTypesService {
	return &DocumentTypesService{newCrud[DocumentType, NameQuery, NamedRequest, NamedPatch](t, "/api/document_types/")}
}

// UsersService provides access to /api/users/.
type UsersService struct {
	crud[User, UserListQuery, UserRequest, UserPatch]
}

func newUsersService(t *Transport) *UsersService {
	return &UsersService{newCrud[User, UserListQuery, UserRequest, UserPatch](t, "/api/users/")}
}

// DeactivateTOTP removes the second factor of a user. body may be nil.
func (s *UsersService) DeactivateTOTP(ctx context.Context, id int, body any) (bool, error) {
	path, err := idPath("/api/users/{id}/deactivate_totp/", id)
	if err != nil {
		return false, err
	}
	var ok bool
	if err := s.transport.Post(ctx, path, body, &ok); err != nil {
		return false, err
	}
	return ok, nil
}

// AuthService provides the token endpoints.
type AuthService struct {
	transport *Transport
}

// Login exchanges credentials for an API token. The returned token is not
// installed on the client; pass it to SetToken.
func (s *AuthService) Login(ctx context.Context, creds TokenRequest) (*TokenResponse, error) {
	var resp TokenResponse
	if err := s.transport.Post(ctx, "/api/token/", creds, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RegenerateProfileToken rotates the token of the authenticated user and
// returns the new one.
func (s *AuthService) RegenerateProfileToken(ctx context.Context) (string, error) {
	var token string
	if err := s.transport.Post(ctx, "/api/profile/generate_auth_token/", nil, &token); err != nil {
		return "", err
	}
	return token, nil
}
