package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/voxhub/voice_go_server/internal/model"
	"github.com/voxhub/voice_go_server/internal/pkg/response"
	"github.com/voxhub/voice_go_server/internal/repository"
	"github.com/voxhub/voice_go_server/internal/testutil"
)

// fakeAuth 测试用：直接注入用户 ID，跳过 JWT 解析
func fakeAuth(userID int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(UserIDKey, userID)
		c.Next()
	}
}

func setupScopeRouter(db *gorm.DB, userID int64) *gin.Engine {
	workspaceRepo := repository.NewWorkspaceRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)

	router := gin.New()
	router.Use(fakeAuth(userID))
	router.GET("/w/:slug/ping", WorkspaceScope(workspaceRepo, membershipRepo), func(c *gin.Context) {
		response.Success(c, gin.H{
			"workspace_id": GetWorkspaceID(c),
			"partner_id":   GetPartnerID(c),
			"role":         c.GetString(RoleKey),
		})
	})
	return router
}

func TestWorkspaceScope_WorkspaceMember(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	partner := testutil.TestPartner(t, db)
	workspace := testutil.TestWorkspace(t, db, partner.ID)
	user := testutil.TestUser(t, db)
	testutil.TestMembership(t, db, user.ID, partner.ID, &workspace.ID, model.RoleMember)

	router := setupScopeRouter(db, user.ID)

	req := httptest.NewRequest("GET", "/w/"+workspace.Slug+"/ping", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	resp := parseResponse(t, w)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, response.CodeSuccess, resp.Code)
}

func TestWorkspaceScope_PartnerLevelFallback(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	partner := testutil.TestPartner(t, db)
	workspace := testutil.TestWorkspace(t, db, partner.ID)
	user := testutil.TestUser(t, db)
	// 合作伙伴级成员（workspace_id 为空）可访问旗下所有工作区
	testutil.TestMembership(t, db, user.ID, partner.ID, nil, model.RoleOwner)

	router := setupScopeRouter(db, user.ID)

	req := httptest.NewRequest("GET", "/w/"+workspace.Slug+"/ping", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	resp := parseResponse(t, w)
	assert.Equal(t, response.CodeSuccess, resp.Code)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, model.RoleOwner, data["role"])
}

func TestWorkspaceScope_NotMember(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	partner := testutil.TestPartner(t, db)
	workspace := testutil.TestWorkspace(t, db, partner.ID)
	user := testutil.TestUser(t, db)
	// 用户是另一个合作伙伴的成员
	other := testutil.TestPartner(t, db)
	testutil.TestMembership(t, db, user.ID, other.ID, nil, model.RoleOwner)

	router := setupScopeRouter(db, user.ID)

	req := httptest.NewRequest("GET", "/w/"+workspace.Slug+"/ping", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	resp := parseResponse(t, w)
	assert.Equal(t, response.CodePermissionDenied, resp.Code)
}

func TestWorkspaceScope_UnknownSlug(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	user := testutil.TestUser(t, db)
	router := setupScopeRouter(db, user.ID)

	req := httptest.NewRequest("GET", "/w/no-such-workspace/ping", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	resp := parseResponse(t, w)
	assert.Equal(t, response.CodeResourceNotFound, resp.Code)
}

func TestWorkspaceScope_SuspendedWorkspace(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	partner := testutil.TestPartner(t, db)
	workspace := testutil.TestWorkspace(t, db, partner.ID, func(ws *model.Workspace) {
		ws.Status = "suspended"
	})
	user := testutil.TestUser(t, db)
	testutil.TestMembership(t, db, user.ID, partner.ID, &workspace.ID, model.RoleMember)

	router := setupScopeRouter(db, user.ID)

	req := httptest.NewRequest("GET", "/w/"+workspace.Slug+"/ping", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	resp := parseResponse(t, w)
	assert.Equal(t, response.CodePermissionDenied, resp.Code)
}

func TestPartnerScope_Success(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	partner := testutil.TestPartner(t, db)
	user := testutil.TestUser(t, db)
	testutil.TestMembership(t, db, user.ID, partner.ID, nil, model.RoleAdmin)

	router := gin.New()
	router.Use(fakeAuth(user.ID))
	router.GET("/admin/ping", PartnerScope(repository.NewPartnerRepository(db), repository.NewMembershipRepository(db)), func(c *gin.Context) {
		response.Success(c, gin.H{"partner_id": GetPartnerID(c)})
	})

	req := httptest.NewRequest("GET", "/admin/ping", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	resp := parseResponse(t, w)
	assert.Equal(t, response.CodeSuccess, resp.Code)
}

func TestPartnerScope_WorkspaceOnlyMember(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	partner := testutil.TestPartner(t, db)
	workspace := testutil.TestWorkspace(t, db, partner.ID)
	user := testutil.TestUser(t, db)
	// 只有工作区级成员关系，不能进 admin 面板
	testutil.TestMembership(t, db, user.ID, partner.ID, &workspace.ID, model.RoleMember)

	router := gin.New()
	router.Use(fakeAuth(user.ID))
	router.GET("/admin/ping", PartnerScope(repository.NewPartnerRepository(db), repository.NewMembershipRepository(db)), func(c *gin.Context) {
		response.Success(c, nil)
	})

	req := httptest.NewRequest("GET", "/admin/ping", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	resp := parseResponse(t, w)
	assert.Equal(t, response.CodePermissionDenied, resp.Code)
}

func TestPartnerScope_SuspendedPartner(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	partner := testutil.TestPartner(t, db, func(p *model.Partner) {
		p.Status = "suspended"
	})
	user := testutil.TestUser(t, db)
	testutil.TestMembership(t, db, user.ID, partner.ID, nil, model.RoleOwner)

	router := gin.New()
	router.Use(fakeAuth(user.ID))
	router.GET("/admin/ping", PartnerScope(repository.NewPartnerRepository(db), repository.NewMembershipRepository(db)), func(c *gin.Context) {
		response.Success(c, nil)
	})

	req := httptest.NewRequest("GET", "/admin/ping", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	resp := parseResponse(t, w)
	assert.Equal(t, response.CodePermissionDenied, resp.Code)
}

func TestRequireRole(t *testing.T) {
	router := gin.New()
	router.GET("/owner-only", func(c *gin.Context) {
		c.Set(RoleKey, model.RoleMember)
		c.Next()
	}, RequireRole(model.RoleOwner, model.RoleAdmin), func(c *gin.Context) {
		response.Success(c, nil)
	})
	router.GET("/admin-ok", func(c *gin.Context) {
		c.Set(RoleKey, model.RoleAdmin)
		c.Next()
	}, RequireRole(model.RoleOwner, model.RoleAdmin), func(c *gin.Context) {
		response.Success(c, nil)
	})

	req := httptest.NewRequest("GET", "/owner-only", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	resp := parseResponse(t, w)
	assert.Equal(t, response.CodePermissionDenied, resp.Code)

	req = httptest.NewRequest("GET", "/admin-ok", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	resp = parseResponse(t, w)
	assert.Equal(t, response.CodeSuccess, resp.Code)
}

func TestSuperAdmin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	admin := testutil.TestUser(t, db, func(u *model.User) {
		u.IsSuperAdmin = true
	})
	normal := testutil.TestUser(t, db)

	userRepo := repository.NewUserRepository(db)

	newRouter := func(userID int64) *gin.Engine {
		router := gin.New()
		router.Use(fakeAuth(userID))
		router.GET("/ops/ping", SuperAdmin(userRepo), func(c *gin.Context) {
			response.Success(c, nil)
		})
		return router
	}

	req := httptest.NewRequest("GET", "/ops/ping", nil)
	w := httptest.NewRecorder()
	newRouter(admin.ID).ServeHTTP(w, req)
	resp := parseResponse(t, w)
	assert.Equal(t, response.CodeSuccess, resp.Code)

	req = httptest.NewRequest("GET", "/ops/ping", nil)
	w = httptest.NewRecorder()
	newRouter(normal.ID).ServeHTTP(w, req)
	resp = parseResponse(t, w)
	assert.Equal(t, response.CodePermissionDenied, resp.Code)
}
