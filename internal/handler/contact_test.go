package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmarcu/contacts-api/internal/model"
)

func asOwner(c echo.Context, uid uint64) echo.Context {
	c.Set("user_id", uid)
	return c
}

func seedContacts(s *fakeContactStore) {
	// Two contacts for owner 1, one for owner 2.
	s.contacts = []*model.Contact{
		{ID: 1, OwnerID: 1, Name: "Ann", Email: "ann@x.com", Phone: "111", Favorite: true},
		{ID: 2, OwnerID: 1, Name: "Bob", Email: "bob@x.com", Phone: "222"},
		{ID: 3, OwnerID: 2, Name: "Eve", Email: "eve@x.com", Phone: "333"},
	}
	s.nextID = 3
}

func TestContactList_Defaults(t *testing.T) {
	store := &fakeContactStore{}
	seedContacts(store)
	h := NewContactHandler(store)

	c, rec := newJSONContext(t, http.MethodGet, "/api/contacts", "")
	require.NoError(t, h.List(asOwner(c, 1)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, store.lastSkip)
	assert.Equal(t, 10, store.lastLimit)
	assert.Nil(t, store.lastFavorite)

	var got []model.Contact
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "Ann", got[0].Name)
	assert.Equal(t, "Bob", got[1].Name)
}

func TestContactList_Pagination(t *testing.T) {
	store := &fakeContactStore{}
	h := NewContactHandler(store)

	c, rec := newJSONContext(t, http.MethodGet, "/api/contacts?page=3&limit=5", "")
	require.NoError(t, h.List(asOwner(c, 1)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 10, store.lastSkip, "skip = (page-1)*limit")
	assert.Equal(t, 5, store.lastLimit)
}

func TestContactList_FavoriteFilter(t *testing.T) {
	store := &fakeContactStore{}
	seedContacts(store)
	h := NewContactHandler(store)

	c, rec := newJSONContext(t, http.MethodGet, "/api/contacts?favorite=true", "")
	require.NoError(t, h.List(asOwner(c, 1)))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, store.lastFavorite)
	assert.True(t, *store.lastFavorite)

	var got []model.Contact
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Ann", got[0].Name)
}

func TestContactList_BadFavoriteFilter(t *testing.T) {
	h := NewContactHandler(&fakeContactStore{})

	c, rec := newJSONContext(t, http.MethodGet, "/api/contacts?favorite=banana", "")
	require.NoError(t, h.List(asOwner(c, 1)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestContactList_EmptyPageIsArray(t *testing.T) {
	h := NewContactHandler(&fakeContactStore{})

	c, rec := newJSONContext(t, http.MethodGet, "/api/contacts", "")
	require.NoError(t, h.List(asOwner(c, 1)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String(),
		"an empty page must serialize as [], not null")
}

func TestContactGetByID_CrossOwnerIsNotFound(t *testing.T) {
	store := &fakeContactStore{}
	seedContacts(store)
	h := NewContactHandler(store)

	// Contact 1 belongs to owner 1; owner 2 must get the same 404 a missing
	// id would produce.
	c, rec := newJSONContext(t, http.MethodGet, "/api/contacts/1", "")
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.GetByID(asOwner(c, 2)))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Not found")
}

func TestContactGetByID_NonNumericID(t *testing.T) {
	h := NewContactHandler(&fakeContactStore{})

	c, rec := newJSONContext(t, http.MethodGet, "/api/contacts/abc", "")
	c.SetParamNames("id")
	c.SetParamValues("abc")
	require.NoError(t, h.GetByID(asOwner(c, 1)))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Not found")
}

func TestContactCreate_BindsOwnerFromContext(t *testing.T) {
	store := &fakeContactStore{}
	h := NewContactHandler(store)

	c, rec := newJSONContext(t, http.MethodPost, "/api/contacts",
		`{"name":"Ann","email":"ann@x.com","phone":"123-45-67"}`)
	require.NoError(t, h.Create(asOwner(c, 7)))

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, store.contacts, 1)
	assert.Equal(t, uint64(7), store.contacts[0].OwnerID)

	var got model.Contact
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.NotZero(t, got.ID)
	assert.Equal(t, "Ann", got.Name)
}

func TestContactCreate_MissingFields(t *testing.T) {
	h := NewContactHandler(&fakeContactStore{})

	cases := []struct {
		name string
		body string
		want string
	}{
		{"no name", `{"email":"a@x.com","phone":"1"}`, "missing required name field"},
		{"no email", `{"name":"Ann","phone":"1"}`, "missing required email field"},
		{"no phone", `{"name":"Ann","email":"a@x.com"}`, "missing required phone field"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newJSONContext(t, http.MethodPost, "/api/contacts", tc.body)
			require.NoError(t, h.Create(asOwner(c, 1)))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.want)
		})
	}
}

func TestContactUpdate_CrossOwnerIsNotFound(t *testing.T) {
	store := &fakeContactStore{}
	seedContacts(store)
	h := NewContactHandler(store)

	c, rec := newJSONContext(t, http.MethodPut, "/api/contacts/1",
		`{"name":"Hacked","email":"h@x.com","phone":"000"}`)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.Update(asOwner(c, 2)))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Ann", store.contacts[0].Name, "the row must be untouched")
}

func TestContactUpdate(t *testing.T) {
	store := &fakeContactStore{}
	seedContacts(store)
	h := NewContactHandler(store)

	c, rec := newJSONContext(t, http.MethodPut, "/api/contacts/2",
		`{"name":"Bobby","email":"bobby@x.com","phone":"999"}`)
	c.SetParamNames("id")
	c.SetParamValues("2")
	require.NoError(t, h.Update(asOwner(c, 1)))

	assert.Equal(t, http.StatusOK, rec.Code)

	var got model.Contact
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Bobby", got.Name)
	assert.Equal(t, "999", got.Phone)
}

func TestContactUpdateFavorite_MissingField(t *testing.T) {
	store := &fakeContactStore{}
	seedContacts(store)
	h := NewContactHandler(store)

	c, rec := newJSONContext(t, http.MethodPatch, "/api/contacts/2/favorite", `{}`)
	c.SetParamNames("id")
	c.SetParamValues("2")
	require.NoError(t, h.UpdateFavorite(asOwner(c, 1)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing field favorite")
}

func TestContactUpdateFavorite_ExplicitFalse(t *testing.T) {
	store := &fakeContactStore{}
	seedContacts(store)
	h := NewContactHandler(store)

	// {"favorite": false} is a real value, not a missing field.
	c, rec := newJSONContext(t, http.MethodPatch, "/api/contacts/1/favorite",
		`{"favorite":false}`)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.UpdateFavorite(asOwner(c, 1)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, store.contacts[0].Favorite)
}

func TestContactDelete_ReturnsLastState(t *testing.T) {
	store := &fakeContactStore{}
	seedContacts(store)
	h := NewContactHandler(store)

	c, rec := newJSONContext(t, http.MethodDelete, "/api/contacts/1", "")
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.Delete(asOwner(c, 1)))

	assert.Equal(t, http.StatusOK, rec.Code)

	var got model.Contact
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Ann", got.Name)

	// A second delete of the same id is a 404.
	c2, rec2 := newJSONContext(t, http.MethodDelete, "/api/contacts/1", "")
	c2.SetParamNames("id")
	c2.SetParamValues("1")
	require.NoError(t, h.Delete(asOwner(c2, 1)))
	assert.Equal(t, http.StatusNotFound, rec2.Code)
}
