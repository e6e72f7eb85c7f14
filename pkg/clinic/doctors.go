package clinic

import "context"

type doctorsResponse struct {
	envelope
	Doctors []Doctor `json:"doctors"`
}

// AllDoctors returns the full practitioner roster. Admin portal only.
func (c *Client) AllDoctors(ctx context.Context, opts ...RequestOption) ([]Doctor, error) {
	var out doctorsResponse
	if err := c.get(ctx, RoleAdmin, endpointTable[RoleAdmin].allDoctors, &out, opts...); err != nil {
		return nil, err
	}
	return out.Doctors, nil
}

// ChangeAvailability toggles whether a doctor can be booked. Admin portal
// only.
func (c *Client) ChangeAvailability(ctx context.Context, docID string) error {
	var out okResponse
	body := map[string]string{"docId": docID}
	return c.post(ctx, RoleAdmin, endpointTable[RoleAdmin].availability, body, &out)
}

// AddDoctor registers a new practitioner, uploading the portrait when
// ImagePath is set. Admin portal only. Runs under the upload timeout.
func (c *Client) AddDoctor(ctx context.Context, d DoctorUpdate) error {
	form, contentType, err := doctorForm(d, true)
	if err != nil {
		return &APIError{Kind: KindUnknown, Role: RoleAdmin, Message: "build form", Err: err}
	}
	return c.postForm(ctx, RoleAdmin, endpointTable[RoleAdmin].addDoctor, form, contentType)
}
