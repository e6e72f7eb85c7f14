package clinic

import "context"

type profileResponse struct {
	envelope
	ProfileData Doctor `json:"profileData"`
}

// Profile returns the logged-in doctor's own record. Doctor portal only.
func (c *Client) Profile(ctx context.Context, opts ...RequestOption) (*Doctor, error) {
	var out profileResponse
	if err := c.get(ctx, RoleDoctor, endpointTable[RoleDoctor].profile, &out, opts...); err != nil {
		return nil, err
	}
	return &out.ProfileData, nil
}

// UpdateProfile edits the doctor's record through the fixed multipart
// field set; the image part is optional. Doctor portal only. Runs under
// the upload timeout.
func (c *Client) UpdateProfile(ctx context.Context, d DoctorUpdate) error {
	form, contentType, err := doctorForm(d, false)
	if err != nil {
		return &APIError{Kind: KindUnknown, Role: RoleDoctor, Message: "build form", Err: err}
	}
	return c.postForm(ctx, RoleDoctor, endpointTable[RoleDoctor].updateProfile, form, contentType)
}
