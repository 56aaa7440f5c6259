package handlers

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/casapps/cascontacts/src/internal/database/models"
	"github.com/casapps/cascontacts/src/internal/services"
)

// TimestampFormat is how every date leaves the API
const TimestampFormat = "2006-01-02T15:04:05Z"

func timestamp(t time.Time) string {
	return t.UTC().Format(TimestampFormat)
}

// AccountRef is the nested account of a resource
type AccountRef struct {
	ID uuid.UUID `json:"id"`
}

// TagResource is a tag as the API presents it
type TagResource struct {
	ID        uuid.UUID  `json:"id"`
	Object    string     `json:"object"`
	Name      string     `json:"name"`
	NameSlug  string     `json:"name_slug"`
	AccountID uuid.UUID  `json:"account_id"`
	Account   AccountRef `json:"account"`
	CreatedAt string     `json:"created_at"`
	UpdatedAt string     `json:"updated_at"`
}

func newTagResource(tag models.Tag) TagResource {
	return TagResource{
		ID:        tag.ID,
		Object:    "tag",
		Name:      tag.Name,
		NameSlug:  tag.NameSlug,
		AccountID: tag.AccountID,
		Account:   AccountRef{ID: tag.AccountID},
		CreatedAt: timestamp(tag.CreatedAt),
		UpdatedAt: timestamp(tag.UpdatedAt),
	}
}

// ContactResource is a contact with its tags
type ContactResource struct {
	ID        uuid.UUID     `json:"id"`
	Object    string        `json:"object"`
	FirstName string        `json:"first_name"`
	LastName  string        `json:"last_name"`
	Tags      []TagResource `json:"tags"`
	Account   AccountRef    `json:"account"`
	CreatedAt string        `json:"created_at"`
	UpdatedAt string        `json:"updated_at"`
}

func newContactResource(contact models.Contact) ContactResource {
	tags := make([]TagResource, 0, len(contact.Tags))
	for _, tag := range contact.Tags {
		tags = append(tags, newTagResource(tag))
	}
	return ContactResource{
		ID:        contact.ID,
		Object:    "contact",
		FirstName: contact.FirstName,
		LastName:  contact.LastName,
		Tags:      tags,
		Account:   AccountRef{ID: contact.AccountID},
		CreatedAt: timestamp(contact.CreatedAt),
		UpdatedAt: timestamp(contact.UpdatedAt),
	}
}

// Single wraps one resource
type Single[T any] struct {
	Data T `json:"data"`
}

// Links point at neighbouring pages
type Links struct {
	First string  `json:"first"`
	Last  string  `json:"last"`
	Prev  *string `json:"prev"`
	Next  *string `json:"next"`
}

// Meta describes where a page sits in the listing
type Meta struct {
	CurrentPage int    `json:"current_page"`
	From        *int   `json:"from"`
	LastPage    int    `json:"last_page"`
	Path        string `json:"path"`
	PerPage     int    `json:"per_page"`
	To          *int   `json:"to"`
	Total       int64  `json:"total"`
}

// Collection is a paginated list of resources
type Collection[T any] struct {
	Data  []T   `json:"data"`
	Links Links `json:"links"`
	Meta  Meta  `json:"meta"`
}

// DeletedResponse acknowledges a delete
type DeletedResponse struct {
	Deleted bool      `json:"deleted"`
	ID      uuid.UUID `json:"id"`
}

func newCollection[M any, R any](c echo.Context, page *services.Page[M], convert func(M) R) Collection[R] {
	data := make([]R, 0, len(page.Items))
	for _, item := range page.Items {
		data = append(data, convert(item))
	}

	path := requestPath(c)
	last := page.LastPage()

	links := Links{
		First: pageURL(c, path, 1),
		Last:  pageURL(c, path, last),
	}
	if page.CurrentPage > 1 {
		prev := pageURL(c, path, page.CurrentPage-1)
		links.Prev = &prev
	}
	if page.CurrentPage < last {
		next := pageURL(c, path, page.CurrentPage+1)
		links.Next = &next
	}

	meta := Meta{
		CurrentPage: page.CurrentPage,
		LastPage:    last,
		Path:        path,
		PerPage:     page.PerPage,
		Total:       page.Total,
	}
	if len(page.Items) > 0 {
		from, to := page.From(), page.To()
		meta.From = &from
		meta.To = &to
	}

	return Collection[R]{Data: data, Links: links, Meta: meta}
}

func requestPath(c echo.Context) string {
	req := c.Request()
	return fmt.Sprintf("%s://%s%s", c.Scheme(), req.Host, req.URL.Path)
}

// pageURL keeps every query parameter except page
func pageURL(c echo.Context, path string, page int) string {
	query := url.Values{}
	for key, values := range c.QueryParams() {
		if key == "page" {
			continue
		}
		query[key] = values
	}
	query.Set("page", strconv.Itoa(page))
	return path + "?" + query.Encode()
}
