package crm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
)

const apiVersion = "v59.0"

// ErrNotConfigured is returned when required CRM credentials are absent.
var ErrNotConfigured = errors.New("crm credentials not configured")

type Credentials struct {
	AuthURL       string
	ClientID      string
	ClientSecret  string
	Username      string
	Password      string
	SecurityToken string
}

func (c Credentials) complete() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.Username != "" && c.Password != "" && c.SecurityToken != ""
}

type session struct {
	AccessToken string `json:"access_token"`
	InstanceURL string `json:"instance_url"`
}

// Client is the ticketing collaborator. A fresh session is requested lazily
// and kept until a call fails authentication.
type Client struct {
	Creds  Credentials
	Fields FieldMapping
	HTTP   *http.Client

	mu   sync.Mutex
	sess *session
}

func (c *Client) getSession(ctx context.Context) (*session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess != nil {
		return c.sess, nil
	}
	if !c.Creds.complete() {
		return nil, ErrNotConfigured
	}

	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("client_id", c.Creds.ClientID)
	form.Set("client_secret", c.Creds.ClientSecret)
	form.Set("username", c.Creds.Username)
	// password and security token are concatenated for the password grant
	form.Set("password", c.Creds.Password+c.Creds.SecurityToken)

	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, c.Creds.AuthURL, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("crm auth: %w", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("crm auth failed: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var s session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("crm auth response: %w", err)
	}
	if s.InstanceURL == "" {
		return nil, errors.New("crm auth response missing instance_url")
	}
	s.InstanceURL = strings.TrimRight(s.InstanceURL, "/")
	c.sess = &s
	return c.sess, nil
}

func (c *Client) dropSession() {
	c.mu.Lock()
	c.sess = nil
	c.mu.Unlock()
}

func (c *Client) sobjectURL(sess *session, sobject string) string {
	return sess.InstanceURL + "/services/data/" + apiVersion + "/sobjects/" + sobject
}

func (c *Client) doJSON(ctx context.Context, method, endpoint string, payload any, out any) error {
	sess, err := c.getSession(ctx)
	if err != nil {
		return err
	}

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, _ := http.NewRequestWithContext(ctx, method, endpoint, body)
	req.Header.Set("Authorization", "Bearer "+sess.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("crm %s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)

	if resp.StatusCode == http.StatusUnauthorized {
		c.dropSession()
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("crm %s %s: status=%d body=%s", method, endpoint, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("crm response decode: %w", err)
		}
	}
	return nil
}

// CreateTicket opens a new case for the identity and returns its id.
func (c *Client) CreateTicket(ctx context.Context, identity, displayName, companyName string) (string, error) {
	sess, err := c.getSession(ctx)
	if err != nil {
		return "", err
	}

	payload := map[string]string{
		c.Fields.PhoneField: identity,
		c.Fields.NameField:  displayName,
		"Origin":            c.Fields.Origin,
		"Status":            c.Fields.InitialStatus,
		"RecordTypeId":      c.Fields.RecordTypeID,
	}
	for k, v := range c.Fields.Static {
		payload[k] = v
	}
	if companyName != "" && c.Fields.CompanyField != "" {
		payload[c.Fields.CompanyField] = companyName
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, c.sobjectURL(sess, "Case"), payload, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", errors.New("crm create ticket: response missing id")
	}
	return out.ID, nil
}

// UpdateStatus moves the ticket to a new workflow status.
func (c *Client) UpdateStatus(ctx context.Context, ticketID, status string) error {
	sess, err := c.getSession(ctx)
	if err != nil {
		return err
	}
	return c.doJSON(ctx, http.MethodPatch, c.sobjectURL(sess, "Case")+"/"+ticketID, map[string]string{"Status": status}, nil)
}

// GetStatus reads the ticket's current workflow status.
func (c *Client) GetStatus(ctx context.Context, ticketID string) (string, error) {
	sess, err := c.getSession(ctx)
	if err != nil {
		return "", err
	}
	var out struct {
		Status string `json:"Status"`
	}
	if err := c.doJSON(ctx, http.MethodGet, c.sobjectURL(sess, "Case")+"/"+ticketID+"?fields=Status", nil, &out); err != nil {
		return "", err
	}
	return out.Status, nil
}

// AttachFile uploads the payload as a content version and links the resulting
// document to the ticket. Returns the link id.
func (c *Client) AttachFile(ctx context.Context, ticketID string, data []byte, filename, title string) (string, error) {
	sess, err := c.getSession(ctx)
	if err != nil {
		return "", err
	}

	if title == "" {
		title = strings.TrimSuffix(filename, extOf(filename))
	}
	versionPayload := map[string]string{
		"VersionData":  base64.StdEncoding.EncodeToString(data),
		"Title":        title,
		"PathOnClient": filename,
	}
	var version struct {
		ID                string `json:"id"`
		ContentDocumentID string `json:"ContentDocumentId"`
	}
	if err := c.doJSON(ctx, http.MethodPost, c.sobjectURL(sess, "ContentVersion"), versionPayload, &version); err != nil {
		return "", err
	}

	docID := version.ContentDocumentID
	if docID == "" && version.ID != "" {
		var fetched struct {
			ContentDocumentID string `json:"ContentDocumentId"`
		}
		if err := c.doJSON(ctx, http.MethodGet, c.sobjectURL(sess, "ContentVersion")+"/"+version.ID, nil, &fetched); err != nil {
			return "", err
		}
		docID = fetched.ContentDocumentID
	}
	if docID == "" {
		return "", errors.New("crm attach: content document id not found")
	}

	linkPayload := map[string]string{
		"ContentDocumentId": docID,
		"LinkedEntityId":    ticketID,
		"Visibility":        "AllUsers",
	}
	var link struct {
		ID string `json:"id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, c.sobjectURL(sess, "ContentDocumentLink"), linkPayload, &link); err != nil {
		return "", err
	}
	if link.ID == "" {
		return "", errors.New("crm attach: response missing link id")
	}
	return link.ID, nil
}

func extOf(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 {
		return ""
	}
	return filename[idx:]
}
