package apiclient

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"github.com/digitrack/digitrack-go/models"
	"github.com/digitrack/digitrack-go/utils"
)

// Profile is the editable backend view of the signed-in user.
type Profile struct {
	UserID   string `json:"userId"`
	Email    string `json:"email"`
	FullName string `json:"fullName,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// AttendanceRecord is one check-in/check-out pair.
type AttendanceRecord struct {
	ID         string     `json:"id"`
	CheckInAt  time.Time  `json:"checkInAt"`
	CheckOutAt *time.Time `json:"checkOutAt,omitempty"`
	Location   string     `json:"location,omitempty"`
}

// CheckEvent is the body of a check-in or check-out call.
type CheckEvent struct {
	Location string `json:"location,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// Document is a stored worker document (ID card, certificate, ...).
type Document struct {
	Type       string    `json:"type"`
	FileName   string    `json:"fileName"`
	UploadedAt time.Time `json:"uploadedAt"`
	URL        string    `json:"url,omitempty"`
}

func (c *Client) GetProfile(ctx context.Context) (Profile, error) {
	resp, err := c.execute(ctx, http.MethodGet, "/user/profile", nil)
	if err != nil {
		return Profile{}, err
	}
	if err := checkStatus(resp); err != nil {
		return Profile{}, err
	}

	var profile Profile
	if err := utils.BytesToStruct(resp.Body(), &profile); err != nil {
		return Profile{}, models.NewAuthError(models.ErrInternal, "unreadable profile response")
	}
	return profile, nil
}

func (c *Client) UpdateProfile(ctx context.Context, profile Profile) error {
	resp, err := c.execute(ctx, http.MethodPut, "/user/profile", func(r *resty.Request) {
		r.SetBody(profile)
	})
	if err != nil {
		return err
	}
	return checkStatus(resp)
}

func (c *Client) CheckIn(ctx context.Context, event CheckEvent) (AttendanceRecord, error) {
	return c.postCheckEvent(ctx, "/attendance/check-in", event)
}

func (c *Client) CheckOut(ctx context.Context, event CheckEvent) (AttendanceRecord, error) {
	return c.postCheckEvent(ctx, "/attendance/check-out", event)
}

func (c *Client) postCheckEvent(ctx context.Context, url string, event CheckEvent) (AttendanceRecord, error) {
	resp, err := c.execute(ctx, http.MethodPost, url, func(r *resty.Request) {
		r.SetBody(event)
	})
	if err != nil {
		return AttendanceRecord{}, err
	}
	if err := checkStatus(resp); err != nil {
		return AttendanceRecord{}, err
	}

	var record AttendanceRecord
	if err := utils.BytesToStruct(resp.Body(), &record); err != nil {
		return AttendanceRecord{}, models.NewAuthError(models.ErrInternal, "unreadable attendance response")
	}
	return record, nil
}

func (c *Client) AttendanceHistory(ctx context.Context) ([]AttendanceRecord, error) {
	resp, err := c.execute(ctx, http.MethodGet, "/attendance/history", nil)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var records []AttendanceRecord
	raw := resp.Body()
	// History is returned either bare or wrapped in {"records": [...]}.
	if wrapped := gjson.GetBytes(raw, "records"); wrapped.Exists() {
		raw = []byte(wrapped.Raw)
	}
	if err := utils.BytesToStruct(raw, &records); err != nil {
		return nil, models.NewAuthError(models.ErrInternal, "unreadable attendance history")
	}
	return records, nil
}

func (c *Client) UploadDocument(ctx context.Context, docType, fileName string, content []byte) error {
	resp, err := c.execute(ctx, http.MethodPost, "/documents/upload", func(r *resty.Request) {
		r.SetFileReader("file", fileName, bytes.NewReader(content))
		r.SetFormData(map[string]string{"type": docType})
	})
	if err != nil {
		return err
	}
	return checkStatus(resp)
}

func (c *Client) ListDocuments(ctx context.Context) ([]Document, error) {
	resp, err := c.execute(ctx, http.MethodGet, "/documents", nil)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var docs []Document
	raw := resp.Body()
	if wrapped := gjson.GetBytes(raw, "documents"); wrapped.Exists() {
		raw = []byte(wrapped.Raw)
	}
	if err := utils.BytesToStruct(raw, &docs); err != nil {
		return nil, models.NewAuthError(models.ErrInternal, "unreadable documents response")
	}
	return docs, nil
}

func (c *Client) DeleteDocument(ctx context.Context, docType string) error {
	resp, err := c.execute(ctx, http.MethodDelete, "/documents/"+docType, nil)
	if err != nil {
		return err
	}
	return checkStatus(resp)
}
