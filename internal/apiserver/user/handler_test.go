package user

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"catalog-admin/internal/apiserver/httpx"
	"catalog-admin/internal/shared/model"
	"catalog-admin/internal/shared/storage/memstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestMux 构建挂载了用户路由的测试服务
func newTestMux(t *testing.T) (*http.ServeMux, *memstore.Store) {
	t.Helper()
	store := memstore.NewStore()
	mux := http.NewServeMux()
	NewHandler(store, true).RegisterRoutes(mux)
	return mux, store
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func userPayload(email string) map[string]interface{} {
	return map[string]interface{}{
		"name":  "Alice",
		"email": email,
		"age":   30,
		"city":  "Beijing",
	}
}

func TestCreateUser(t *testing.T) {
	mux, _ := newTestMux(t)

	rec := doJSON(t, mux, http.MethodPost, "/api/v1/users", userPayload("alice@example.com"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var u model.User
	decodeBody(t, rec, &u)
	assert.Regexp(t, `^user-[0-9a-f]{12}$`, u.ID)
	assert.Equal(t, "alice@example.com", u.Email)
	// 未提供 status 时取默认值
	assert.Equal(t, model.UserStatusActive, u.Status)
	assert.False(t, u.CreatedAt.IsZero())
}

func TestCreateUserInvalidBody(t *testing.T) {
	mux, _ := newTestMux(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateUserValidationErrors(t *testing.T) {
	mux, _ := newTestMux(t)

	rec := doJSON(t, mux, http.MethodPost, "/api/v1/users", map[string]interface{}{
		"email": "not-an-email",
		"age":   -1,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Error  string             `json:"error"`
		Errors []model.FieldError `json:"errors"`
	}
	decodeBody(t, rec, &resp)
	assert.Equal(t, "validation failed", resp.Error)

	fields := map[string]bool{}
	for _, fe := range resp.Errors {
		fields[fe.Field] = true
	}
	assert.True(t, fields["name"])
	assert.True(t, fields["email"])
	assert.True(t, fields["age"])
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	mux, _ := newTestMux(t)

	rec := doJSON(t, mux, http.MethodPost, "/api/v1/users", userPayload("dup@example.com"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, mux, http.MethodPost, "/api/v1/users", userPayload("dup@example.com"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "email")
}

func TestGetUser(t *testing.T) {
	mux, _ := newTestMux(t)

	rec := doJSON(t, mux, http.MethodPost, "/api/v1/users", userPayload("a@example.com"))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created model.User
	decodeBody(t, rec, &created)

	rec = doJSON(t, mux, http.MethodGet, "/api/v1/users/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got model.User
	decodeBody(t, rec, &got)
	assert.Equal(t, created.ID, got.ID)

	rec = doJSON(t, mux, http.MethodGet, "/api/v1/users/user-nonexistent", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListUsersPaginationAndFilter(t *testing.T) {
	mux, _ := newTestMux(t)

	for i := 0; i < 5; i++ {
		p := userPayload(fmt.Sprintf("u%d@example.com", i))
		if i >= 3 {
			p["status"] = "inactive"
		}
		rec := doJSON(t, mux, http.MethodPost, "/api/v1/users", p)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	var resp struct {
		Users      []model.User     `json:"users"`
		Pagination httpx.Pagination `json:"pagination"`
	}

	rec := doJSON(t, mux, http.MethodGet, "/api/v1/users?page=1&limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &resp)
	assert.Equal(t, 5, resp.Pagination.Total)
	assert.Equal(t, 3, resp.Pagination.Pages)
	assert.Len(t, resp.Users, 2)

	rec = doJSON(t, mux, http.MethodGet, "/api/v1/users?status=inactive", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &resp)
	assert.Equal(t, 2, resp.Pagination.Total)
	// 缺省分页参数：page=1, limit=20
	assert.Equal(t, 1, resp.Pagination.Page)
	assert.Equal(t, 20, resp.Pagination.Limit)

	// 非法分页参数回退默认值而不是报错
	rec = doJSON(t, mux, http.MethodGet, "/api/v1/users?page=abc&limit=-5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &resp)
	assert.Equal(t, 1, resp.Pagination.Page)
	assert.Equal(t, 20, resp.Pagination.Limit)
}

func TestSearchUsers(t *testing.T) {
	mux, _ := newTestMux(t)

	p := userPayload("alice@example.com")
	p["name"] = "Alice Chen"
	rec := doJSON(t, mux, http.MethodPost, "/api/v1/users", p)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, mux, http.MethodGet, "/api/v1/users/search?q=alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Users []model.User `json:"users"`
		Count int          `json:"count"`
	}
	decodeBody(t, rec, &resp)
	assert.Equal(t, 1, resp.Count)
	require.Len(t, resp.Users, 1)

	// 缺失或空白关键字一律 400
	rec = doJSON(t, mux, http.MethodGet, "/api/v1/users/search", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = doJSON(t, mux, http.MethodGet, "/api/v1/users/search?q=%20%20", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUserStatsEndpoint(t *testing.T) {
	mux, _ := newTestMux(t)

	for i := 0; i < 3; i++ {
		rec := doJSON(t, mux, http.MethodPost, "/api/v1/users",
			userPayload(fmt.Sprintf("u%d@example.com", i)))
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doJSON(t, mux, http.MethodGet, "/api/v1/users/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Stats []model.UserGroupStats `json:"stats"`
	}
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Stats, 1)
	assert.Equal(t, model.UserStatusActive, resp.Stats[0].Status)
	assert.Equal(t, 3, resp.Stats[0].Count)
	require.NotNil(t, resp.Stats[0].AvgAge)
	assert.InDelta(t, 30.0, *resp.Stats[0].AvgAge, 0.001)
}

func TestUpdateUserPartial(t *testing.T) {
	mux, _ := newTestMux(t)

	rec := doJSON(t, mux, http.MethodPost, "/api/v1/users", userPayload("a@example.com"))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created model.User
	decodeBody(t, rec, &created)

	// 只改 name，其余字段保持不变
	rec = doJSON(t, mux, http.MethodPatch, "/api/v1/users/"+created.ID,
		map[string]interface{}{"name": "Alice Wang"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated model.User
	decodeBody(t, rec, &updated)
	assert.Equal(t, "Alice Wang", updated.Name)
	assert.Equal(t, "a@example.com", updated.Email)
	require.NotNil(t, updated.Age)
	assert.Equal(t, 30, *updated.Age)

	// PUT 与 PATCH 行为一致
	rec = doJSON(t, mux, http.MethodPut, "/api/v1/users/"+created.ID,
		map[string]interface{}{"city": "Shanghai"})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &updated)
	assert.Equal(t, "Alice Wang", updated.Name)
	assert.Equal(t, "Shanghai", updated.City)
}

func TestUpdateUserErrors(t *testing.T) {
	mux, _ := newTestMux(t)

	rec := doJSON(t, mux, http.MethodPost, "/api/v1/users", userPayload("a@example.com"))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created model.User
	decodeBody(t, rec, &created)

	// 非法补丁 -> 400
	rec = doJSON(t, mux, http.MethodPatch, "/api/v1/users/"+created.ID,
		map[string]interface{}{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// 不存在的记录 -> 404（与 400 可区分）
	rec = doJSON(t, mux, http.MethodPatch, "/api/v1/users/user-nonexistent",
		map[string]interface{}{"name": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteUser(t *testing.T) {
	mux, _ := newTestMux(t)

	rec := doJSON(t, mux, http.MethodPost, "/api/v1/users", userPayload("a@example.com"))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created model.User
	decodeBody(t, rec, &created)

	rec = doJSON(t, mux, http.MethodDelete, "/api/v1/users/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Message string     `json:"message"`
		User    model.User `json:"user"`
	}
	decodeBody(t, rec, &resp)
	assert.Equal(t, created.ID, resp.User.ID)

	// 已删除的记录再删一次 -> 404
	rec = doJSON(t, mux, http.MethodDelete, "/api/v1/users/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBulkCreateUsers(t *testing.T) {
	mux, _ := newTestMux(t)

	rec := doJSON(t, mux, http.MethodPost, "/api/v1/users/bulk", []map[string]interface{}{
		userPayload("b1@example.com"),
		userPayload("b2@example.com"),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp struct {
		Inserted int          `json:"inserted"`
		Users    []model.User `json:"users"`
	}
	decodeBody(t, rec, &resp)
	assert.Equal(t, 2, resp.Inserted)
	require.Len(t, resp.Users, 2)
	assert.NotEmpty(t, resp.Users[0].ID)
}

func TestBulkCreateUsersValidation(t *testing.T) {
	mux, _ := newTestMux(t)

	// 任一记录非法则整批拒绝，错误带下标
	rec := doJSON(t, mux, http.MethodPost, "/api/v1/users/bulk", []map[string]interface{}{
		userPayload("ok@example.com"),
		{"email": "bad"},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp struct {
		Error   string `json:"error"`
		Records []struct {
			Index  int                `json:"index"`
			Errors []model.FieldError `json:"errors"`
		} `json:"records"`
	}
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Records, 1)
	assert.Equal(t, 1, resp.Records[0].Index)

	// 未触达存储层：合法记录也不应落库
	rec = doJSON(t, mux, http.MethodGet, "/api/v1/users/search?q=ok@example.com", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":0`)
}

func TestBulkCreateUsersEmpty(t *testing.T) {
	mux, _ := newTestMux(t)

	rec := doJSON(t, mux, http.MethodPost, "/api/v1/users/bulk", []map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBulkCreateUsersConflict(t *testing.T) {
	mux, _ := newTestMux(t)

	rec := doJSON(t, mux, http.MethodPost, "/api/v1/users", userPayload("taken@example.com"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, mux, http.MethodPost, "/api/v1/users/bulk", []map[string]interface{}{
		userPayload("fresh@example.com"),
		userPayload("taken@example.com"),
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "record 1")
}
