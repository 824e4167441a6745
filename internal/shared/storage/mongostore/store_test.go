package mongostore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"catalog-admin/internal/shared/model"
	"catalog-admin/internal/shared/storage"
)

// testStore 创建测试用 Store，使用独立数据库避免污染
// 本地没有 MongoDB 时跳过整个测试文件
func testStore(t *testing.T) *Store {
	t.Helper()

	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	s, err := NewStore(uri, "catalog_admin_test", 5)
	if err != nil {
		t.Skipf("MongoDB not available: %v", err)
	}

	ctx := context.Background()
	if err := s.db.Drop(ctx); err != nil {
		t.Fatalf("Failed to drop test database: %v", err)
	}
	if err := s.ensureIndexes(ctx); err != nil {
		t.Fatalf("Failed to create indexes: %v", err)
	}

	t.Cleanup(func() {
		s.db.Drop(context.Background())
		s.Close()
	})

	return s
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func testUser(id, email string) *model.User {
	return &model.User{
		ID:     id,
		Name:   "User " + id,
		Email:  email,
		Age:    intPtr(30),
		City:   "Beijing",
		Status: model.UserStatusActive,
	}
}

func TestUserCRUD(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	u := testUser("user-001", "alice@example.com")
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.CreatedAt.IsZero() {
		t.Fatal("CreateUser should assign timestamps")
	}

	got, err := s.GetUser(ctx, "user-001")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got == nil || got.Email != "alice@example.com" {
		t.Fatalf("GetUser returned %+v", got)
	}
	if !got.CreatedAt.Equal(u.CreatedAt) {
		t.Fatalf("CreatedAt round-trip mismatch: %v != %v", got.CreatedAt, u.CreatedAt)
	}

	// 不存在返回 (nil, nil)
	missing, err := s.GetUser(ctx, "user-nope")
	if err != nil || missing != nil {
		t.Fatalf("GetUser missing: got (%v, %v)", missing, err)
	}

	got.Name = "Renamed"
	if err := s.UpdateUser(ctx, got); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}

	deleted, err := s.DeleteUser(ctx, "user-001")
	if err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if deleted.Name != "Renamed" {
		t.Fatalf("DeleteUser should return the deleted record, got %+v", deleted)
	}
	if _, err := s.DeleteUser(ctx, "user-001"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("second delete should be ErrNotFound, got %v", err)
	}
}

func TestUserDuplicateEmail(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.CreateUser(ctx, testUser("user-1", "dup@example.com")); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	err := s.CreateUser(ctx, testUser("user-2", "dup@example.com"))
	if !errors.Is(err, storage.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	var conflict *storage.ConflictError
	if !errors.As(err, &conflict) || conflict.Field != "email" {
		t.Fatalf("expected conflict on email, got %v", err)
	}
}

// 有序批量插入：失败下标之前的记录已落库，错误携带下标
func TestUserBulkCreateOrdered(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.CreateUser(ctx, testUser("user-pre", "taken@example.com")); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	err := s.CreateUsers(ctx, []*model.User{
		testUser("user-b1", "b1@example.com"),
		testUser("user-b2", "taken@example.com"),
		testUser("user-b3", "b3@example.com"),
	})
	if !errors.Is(err, storage.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	first, err2 := s.GetUser(ctx, "user-b1")
	if err2 != nil || first == nil {
		t.Fatalf("record before the failure should be persisted: (%v, %v)", first, err2)
	}
	third, err2 := s.GetUser(ctx, "user-b3")
	if err2 != nil || third != nil {
		t.Fatalf("record after the failure should not be persisted: (%v, %v)", third, err2)
	}
}

func TestUserListAndSearch(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	users := make([]*model.User, 0, 5)
	for i := 0; i < 5; i++ {
		u := testUser(fmt.Sprintf("user-%03d", i), fmt.Sprintf("u%d@example.com", i))
		if i >= 3 {
			u.Status = model.UserStatusInactive
		}
		users = append(users, u)
	}
	if err := s.CreateUsers(ctx, users); err != nil {
		t.Fatalf("CreateUsers: %v", err)
	}

	q := storage.ListQuery{Page: 1, PageSize: 2}.Eq("status", "active")
	page, total, err := s.ListUsers(ctx, q)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if total != 3 || len(page) != 2 {
		t.Fatalf("ListUsers: total=%d len=%d", total, len(page))
	}

	found, err := s.SearchUsers(ctx, "User user-004")
	if err != nil {
		t.Fatalf("SearchUsers: %v", err)
	}
	if len(found) != 1 || found[0].ID != "user-004" {
		t.Fatalf("SearchUsers: %+v", found)
	}

	// 正则元字符按字面匹配
	found, err = s.SearchUsers(ctx, "u1@example.com")
	if err != nil {
		t.Fatalf("SearchUsers: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("SearchUsers with dot literal: %+v", found)
	}
}

func TestUserStats(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	mk := func(id string, status model.UserStatus, age *int) *model.User {
		u := testUser(id, id+"@example.com")
		u.Status = status
		u.Age = age
		return u
	}
	if err := s.CreateUsers(ctx, []*model.User{
		mk("user-1", model.UserStatusActive, intPtr(20)),
		mk("user-2", model.UserStatusActive, intPtr(40)),
		mk("user-3", model.UserStatusActive, nil),
		mk("user-4", model.UserStatusPending, nil),
	}); err != nil {
		t.Fatalf("CreateUsers: %v", err)
	}

	stats, err := s.UserStats(ctx)
	if err != nil {
		t.Fatalf("UserStats: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("UserStats groups: %+v", stats)
	}
	active := stats[0]
	if active.Status != model.UserStatusActive || active.Count != 3 {
		t.Fatalf("active group: %+v", active)
	}
	if active.AvgAge == nil || *active.AvgAge != 30 {
		t.Fatalf("AvgAge should ignore null ages: %+v", active.AvgAge)
	}
	if stats[1].AvgAge != nil {
		t.Fatalf("all-null group should have nil AvgAge: %+v", stats[1])
	}
}

func TestProductStats(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	mk := func(id, category string, price float64, qty int) *model.Product {
		return &model.Product{
			ID:       id,
			Name:     "Product " + id,
			Price:    floatPtr(price),
			Quantity: qty,
			Category: category,
			Status:   model.ProductStatusAvailable,
		}
	}
	if err := s.CreateProducts(ctx, []*model.Product{
		mk("prod-1", "tools", 10, 3),
		mk("prod-2", "tools", 20, 7),
		mk("prod-3", "toys", 5, 1),
	}); err != nil {
		t.Fatalf("CreateProducts: %v", err)
	}

	stats, err := s.ProductStats(ctx)
	if err != nil {
		t.Fatalf("ProductStats: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("ProductStats groups: %+v", stats)
	}
	tools := stats[0]
	if tools.Category != "tools" {
		tools = stats[1]
	}
	if tools.Count != 2 || tools.TotalQuantity != 10 {
		t.Fatalf("tools group: %+v", tools)
	}
	if tools.AvgPrice == nil || *tools.AvgPrice != 15 {
		t.Fatalf("tools avg price: %+v", tools.AvgPrice)
	}
}
