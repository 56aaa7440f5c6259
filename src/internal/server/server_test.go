package server_test

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/casapps/cascontacts/src/internal/database/models"
	testsuite "github.com/casapps/cascontacts/src/internal/testing"
)

type APISuite struct {
	testsuite.TestSuite
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}

type tagEnvelope struct {
	Data struct {
		ID        string `json:"id"`
		Object    string `json:"object"`
		Name      string `json:"name"`
		NameSlug  string `json:"name_slug"`
		AccountID string `json:"account_id"`
		Account   struct {
			ID string `json:"id"`
		} `json:"account"`
		CreatedAt string `json:"created_at"`
		UpdatedAt string `json:"updated_at"`
	} `json:"data"`
}

type listEnvelope struct {
	Data  []map[string]interface{} `json:"data"`
	Links struct {
		First string  `json:"first"`
		Last  string  `json:"last"`
		Prev  *string `json:"prev"`
		Next  *string `json:"next"`
	} `json:"links"`
	Meta struct {
		CurrentPage int    `json:"current_page"`
		From        *int   `json:"from"`
		LastPage    int    `json:"last_page"`
		Path        string `json:"path"`
		PerPage     int    `json:"per_page"`
		To          *int   `json:"to"`
		Total       int    `json:"total"`
	} `json:"meta"`
}

func (s *APISuite) createTag(name string) tagEnvelope {
	resp, err := s.APIClient.POST("/api/tags", map[string]string{"name": name})
	s.Require().NoError(err)
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	var tag tagEnvelope
	testsuite.DecodeJSON(s.T(), resp, &tag)
	return tag
}

func (s *APISuite) TestHealth() {
	resp, err := s.APIClient.GET("/health")
	s.Require().NoError(err)

	var body map[string]interface{}
	testsuite.DecodeJSON(s.T(), resp, &body)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal("healthy", body["status"])
	s.Equal("memory", body["cache"])
}

func (s *APISuite) TestRequiresAuthentication() {
	resp, err := s.APIClient.GET("/api/tags")
	s.Require().NoError(err)
	s.AssertAPIError(resp, http.StatusUnauthorized, 0)
}

func (s *APISuite) TestLogin() {
	user := s.TestData.CreateUser(s.T(), "en")

	s.Error(s.APIClient.Login(user.Email, "wrong-password"))
	s.NoError(s.APIClient.Login(user.Email, testsuite.DefaultPassword))

	resp, err := s.APIClient.GET("/api/me")
	s.Require().NoError(err)

	var me struct {
		Data struct {
			Email   string `json:"email"`
			Account struct {
				ID string `json:"id"`
			} `json:"account"`
		} `json:"data"`
	}
	testsuite.DecodeJSON(s.T(), resp, &me)
	s.Equal(user.Email, me.Data.Email)
	s.Equal(user.AccountID.String(), me.Data.Account.ID)
}

func (s *APISuite) TestTagLifecycle() {
	user := s.TestData.CreateUser(s.T(), "en")
	s.APIClient.LoginAs(s.T(), user)

	created := s.createTag("VIP Client")
	s.Equal("tag", created.Data.Object)
	s.Equal("VIP Client", created.Data.Name)
	s.Equal("vip-client", created.Data.NameSlug)
	s.Equal(user.AccountID.String(), created.Data.AccountID)
	s.Equal(user.AccountID.String(), created.Data.Account.ID)
	s.True(strings.HasSuffix(created.Data.CreatedAt, "Z"))

	id := created.Data.ID

	// Get
	resp, err := s.APIClient.GET("/api/tags/" + id)
	s.Require().NoError(err)
	s.Equal(http.StatusOK, resp.StatusCode)
	var fetched tagEnvelope
	testsuite.DecodeJSON(s.T(), resp, &fetched)
	s.Equal(created.Data.ID, fetched.Data.ID)

	// Update
	resp, err = s.APIClient.PUT("/api/tags/"+id, map[string]string{"name": "Café Crème"})
	s.Require().NoError(err)
	s.Equal(http.StatusOK, resp.StatusCode)
	var updated tagEnvelope
	testsuite.DecodeJSON(s.T(), resp, &updated)
	s.Equal("cafe-creme", updated.Data.NameSlug)

	// Get reflects the update
	resp, err = s.APIClient.GET("/api/tags/" + id)
	s.Require().NoError(err)
	testsuite.DecodeJSON(s.T(), resp, &fetched)
	s.Equal("Café Crème", fetched.Data.Name)

	// Attach to a contact, then delete
	contact := s.TestData.CreateContact(s.T(), user, "Ada")
	resp, err = s.APIClient.POST(fmt.Sprintf("/api/contacts/%s/setTags", contact.ID), map[string][]string{"tags": {"Café Crème"}})
	s.Require().NoError(err)
	s.Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = s.APIClient.DELETE("/api/tags/" + id)
	s.Require().NoError(err)
	var deleted map[string]interface{}
	testsuite.DecodeJSON(s.T(), resp, &deleted)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal(true, deleted["deleted"])
	s.Equal(id, deleted["id"])

	s.AssertDatabaseCount(&models.ContactTag{}, 0)

	resp, err = s.APIClient.GET("/api/tags/" + id)
	s.Require().NoError(err)
	s.AssertAPIError(resp, http.StatusNotFound, 31)

	resp, err = s.APIClient.DELETE("/api/tags/" + id)
	s.Require().NoError(err)
	s.AssertAPIError(resp, http.StatusNotFound, 31)
}

func (s *APISuite) TestTagValidation() {
	user := s.TestData.CreateUser(s.T(), "en")
	s.APIClient.LoginAs(s.T(), user)

	resp, err := s.APIClient.POST("/api/tags", map[string]string{"name": ""})
	s.Require().NoError(err)
	body := s.AssertAPIError(resp, http.StatusBadRequest, 32)
	s.Equal([]interface{}{"The name field is required."}, body["messages"])

	resp, err = s.APIClient.POST("/api/tags", map[string]string{"name": strings.Repeat("x", 251)})
	s.Require().NoError(err)
	s.AssertAPIError(resp, http.StatusBadRequest, 32)

	resp, err = s.APIClient.POST("/api/tags", map[string]string{"name": strings.Repeat("x", 70000)})
	s.Require().NoError(err)
	s.AssertAPIError(resp, http.StatusBadRequest, 32)

	resp, err = s.APIClient.POST("/api/tags", map[string]string{"name": "ok", "colour": "red"})
	s.Require().NoError(err)
	s.AssertAPIError(resp, http.StatusBadRequest, 41)

	resp, err = s.APIClient.POST("/api/tags", `{"name": `)
	s.Require().NoError(err)
	s.AssertAPIError(resp, http.StatusBadRequest, 37)

	s.AssertDatabaseCount(&models.Tag{}, 0)
}

func (s *APISuite) TestValidationMessagesUseUserLocale() {
	user := s.TestData.CreateUser(s.T(), "fr")
	s.APIClient.LoginAs(s.T(), user)

	resp, err := s.APIClient.POST("/api/tags", map[string]string{})
	s.Require().NoError(err)
	s.Equal("fr", resp.Header.Get("Content-Language"))

	body := s.AssertAPIError(resp, http.StatusBadRequest, 32)
	s.Equal([]interface{}{"Le champ name est obligatoire."}, body["messages"])
}

func (s *APISuite) TestConcurrentLocalesDoNotLeak() {
	french := s.TestData.CreateUser(s.T(), "fr")
	german := s.TestData.CreateUser(s.T(), "de")

	frenchClient := *s.APIClient
	germanClient := *s.APIClient
	frenchClient.LoginAs(s.T(), french)
	germanClient.LoginAs(s.T(), german)

	var wg sync.WaitGroup
	check := func(client *testsuite.APITestClient, want string) {
		defer wg.Done()
		for i := 0; i < 10; i++ {
			resp, err := client.GET("/api/tags")
			if !s.NoError(err) {
				return
			}
			resp.Body.Close()
			s.Equal(want, resp.Header.Get("Content-Language"))
		}
	}

	wg.Add(2)
	go check(&frenchClient, "fr")
	go check(&germanClient, "de")
	wg.Wait()
}

func (s *APISuite) TestAccountIsolation() {
	owner := s.TestData.CreateUser(s.T(), "en")
	stranger := s.TestData.CreateUser(s.T(), "en")

	tag := s.TestData.CreateTag(s.T(), owner, "Private")

	s.APIClient.LoginAs(s.T(), stranger)

	resp, err := s.APIClient.GET("/api/tags/" + tag.ID.String())
	s.Require().NoError(err)
	s.AssertAPIError(resp, http.StatusNotFound, 31)

	resp, err = s.APIClient.PUT("/api/tags/"+tag.ID.String(), map[string]string{"name": "Mine"})
	s.Require().NoError(err)
	s.AssertAPIError(resp, http.StatusNotFound, 31)

	resp, err = s.APIClient.DELETE("/api/tags/" + tag.ID.String())
	s.Require().NoError(err)
	s.AssertAPIError(resp, http.StatusNotFound, 31)

	resp, err = s.APIClient.GET("/api/tags")
	s.Require().NoError(err)
	var list listEnvelope
	testsuite.DecodeJSON(s.T(), resp, &list)
	s.Empty(list.Data)
	s.Equal(0, list.Meta.Total)
	s.Nil(list.Meta.From)
}

func (s *APISuite) TestTagPagination() {
	user := s.TestData.CreateUser(s.T(), "en")
	s.APIClient.LoginAs(s.T(), user)

	for i := 0; i < 5; i++ {
		s.createTag(fmt.Sprintf("tag %d", i))
	}

	resp, err := s.APIClient.GET("/api/tags?limit=2&page=2")
	s.Require().NoError(err)
	var list listEnvelope
	testsuite.DecodeJSON(s.T(), resp, &list)

	s.Len(list.Data, 2)
	s.Equal(2, list.Meta.CurrentPage)
	s.Equal(3, list.Meta.LastPage)
	s.Equal(2, list.Meta.PerPage)
	s.Equal(5, list.Meta.Total)
	s.Require().NotNil(list.Meta.From)
	s.Equal(3, *list.Meta.From)
	s.Require().NotNil(list.Links.Prev)
	s.Contains(*list.Links.Prev, "page=1")
	s.Require().NotNil(list.Links.Next)
	s.Contains(*list.Links.Next, "page=3")
	s.Contains(list.Links.First, "limit=2")
	s.True(strings.HasSuffix(list.Meta.Path, "/api/tags"))

	resp, err = s.APIClient.GET("/api/tags")
	s.Require().NoError(err)
	testsuite.DecodeJSON(s.T(), resp, &list)
	s.Equal(15, list.Meta.PerPage)
	s.Nil(list.Links.Next)

	resp, err = s.APIClient.GET("/api/tags?limit=101")
	s.Require().NoError(err)
	s.AssertAPIError(resp, http.StatusBadRequest, 30)
}

func (s *APISuite) TestContactEndpoints() {
	user := s.TestData.CreateUser(s.T(), "en")
	s.APIClient.LoginAs(s.T(), user)

	resp, err := s.APIClient.POST("/api/contacts", map[string]string{"first_name": "Grace", "last_name": "Hopper"})
	s.Require().NoError(err)
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	var contact struct {
		Data struct {
			ID   string `json:"id"`
			Tags []struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"tags"`
		} `json:"data"`
	}
	testsuite.DecodeJSON(s.T(), resp, &contact)
	id := contact.Data.ID

	resp, err = s.APIClient.POST("/api/contacts/"+id+"/setTags", map[string][]string{"tags": {"Navy", "COBOL"}})
	s.Require().NoError(err)
	testsuite.DecodeJSON(s.T(), resp, &contact)
	s.Require().Len(contact.Data.Tags, 2)
	s.Equal("COBOL", contact.Data.Tags[0].Name)

	// Contacts carrying a tag
	resp, err = s.APIClient.GET("/api/tags/" + contact.Data.Tags[0].ID + "/contacts")
	s.Require().NoError(err)
	var list listEnvelope
	testsuite.DecodeJSON(s.T(), resp, &list)
	s.Require().Len(list.Data, 1)
	s.Equal("Grace", list.Data[0]["first_name"])

	resp, err = s.APIClient.POST("/api/contacts/"+id+"/unsetTags", map[string][]string{"tags": {contact.Data.Tags[0].ID}})
	s.Require().NoError(err)
	testsuite.DecodeJSON(s.T(), resp, &contact)
	s.Len(contact.Data.Tags, 1)

	resp, err = s.APIClient.POST("/api/contacts/"+id+"/unsetTag", nil)
	s.Require().NoError(err)
	testsuite.DecodeJSON(s.T(), resp, &contact)
	s.Empty(contact.Data.Tags)

	resp, err = s.APIClient.GET("/api/contacts/" + id)
	s.Require().NoError(err)
	s.Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = s.APIClient.POST("/api/contacts", map[string]string{"last_name": "NoFirst"})
	s.Require().NoError(err)
	s.AssertAPIError(resp, http.StatusBadRequest, 32)
}

func (s *APISuite) TestUpdateLocale() {
	user := s.TestData.CreateUser(s.T(), "en")
	s.APIClient.LoginAs(s.T(), user)

	resp, err := s.APIClient.PUT("/api/me/locale", map[string]string{"locale": "de-AT"})
	s.Require().NoError(err)
	s.Equal("en", resp.Header.Get("Content-Language"))
	resp.Body.Close()

	resp, err = s.APIClient.GET("/api/tags")
	s.Require().NoError(err)
	resp.Body.Close()
	s.Equal("de", resp.Header.Get("Content-Language"))
}
