package validator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"foodway/internal/apperror"
	"foodway/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func jsonContext(body string) *gin.Context {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return c
}

func queryContext(query string) *gin.Context {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/?"+query, nil)
	return c
}

func fieldErrors(t *testing.T, err error) []apperror.FieldError {
	t.Helper()
	appErr, ok := apperror.As(err)
	require.True(t, ok, "expected AppError, got %v", err)
	assert.Equal(t, apperror.KindValidation, appErr.Kind)
	assert.Equal(t, "Erro de validação", appErr.Message)
	return appErr.Errors
}

func TestBindJSON_RequiredFieldsUseJSONNames(t *testing.T) {
	var req service.LoginRequest
	err := BindJSON(jsonContext(`{}`), &req)

	errs := fieldErrors(t, err)
	require.Len(t, errs, 2)
	assert.Equal(t, "email", errs[0].Field)
	assert.Equal(t, "any.required", errs[0].Type)
	assert.Equal(t, "email é obrigatório", errs[0].Message)
	assert.Equal(t, "password", errs[1].Field)
}

func TestBindJSON_Messages(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		field   string
		typ     string
		message string
	}{
		{
			name:    "short name",
			body:    `{"name":"A"}`,
			field:   "name",
			typ:     "string.min",
			message: "name deve ter pelo menos 2 caracteres",
		},
		{
			name:    "bad email",
			body:    `{"name":"Cantina","email":"nope"}`,
			field:   "email",
			typ:     "string.email",
			message: "email deve ter um formato de email válido",
		},
		{
			name:    "bad phone",
			body:    `{"name":"Cantina","phone":"abc"}`,
			field:   "phone",
			typ:     "string.pattern.base",
			message: "Telefone deve conter apenas números e caracteres válidos",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req service.CreateRestaurantRequest
			errs := fieldErrors(t, BindJSON(jsonContext(tt.body), &req))
			require.Len(t, errs, 1)
			assert.Equal(t, tt.field, errs[0].Field)
			assert.Equal(t, tt.typ, errs[0].Type)
			assert.Equal(t, tt.message, errs[0].Message)
		})
	}
}

func TestBindJSON_ValidPhonePasses(t *testing.T) {
	var req service.CreateRestaurantRequest
	err := BindJSON(jsonContext(`{"name":"Cantina","phone":"+55 (11) 9999-0000"}`), &req)
	require.NoError(t, err)
	assert.Equal(t, "+55 (11) 9999-0000", req.Phone)
}

func TestBindJSON_PromotionPriceRule(t *testing.T) {
	var req service.CreateProductRequest
	body := `{"category_id":1,"name":"Pizza","regular_price":30,"current_price":35,"is_on_promotion":true}`

	errs := fieldErrors(t, BindJSON(jsonContext(body), &req))
	require.Len(t, errs, 1)
	assert.Equal(t, "current_price", errs[0].Field)
	assert.Equal(t, "custom.promotionPrice", errs[0].Type)
	assert.Equal(t, "Preço promocional deve ser menor que o preço regular", errs[0].Message)
}

func TestBindJSON_PromotionWithoutCurrentPriceFails(t *testing.T) {
	var req service.CreateProductRequest
	body := `{"category_id":1,"name":"Pizza","regular_price":30,"is_on_promotion":true}`

	errs := fieldErrors(t, BindJSON(jsonContext(body), &req))
	require.Len(t, errs, 1)
	assert.Equal(t, "custom.promotionPrice", errs[0].Type)
}

func TestBindJSON_UserRoleRestaurantRule(t *testing.T) {
	var req service.CreateUserRequest
	body := `{"name":"Ana","email":"ana@example.com","password":"secret1","role":"restaurant_user"}`

	errs := fieldErrors(t, BindJSON(jsonContext(body), &req))
	require.Len(t, errs, 1)
	assert.Equal(t, "restaurant_id", errs[0].Field)
	assert.Equal(t, "custom.restaurantUserRestaurant", errs[0].Type)
}

func TestBindJSON_TableRangeRule(t *testing.T) {
	var req service.GenerateTablesRequest

	errs := fieldErrors(t, BindJSON(jsonContext(`{"start_number":1,"end_number":150}`), &req))
	require.Len(t, errs, 1)
	assert.Equal(t, "custom.rangeTooBig", errs[0].Type)
	assert.Equal(t, "Range máximo de 100 mesas por vez", errs[0].Message)

	require.NoError(t, BindJSON(jsonContext(`{"start_number":1,"end_number":100}`), &req))
}

func TestBindJSON_NestedItemPath(t *testing.T) {
	var req service.CreateOrderRequest
	body := `{"restaurant_id":1,"items":[{"product_id":1,"quantity":0}]}`

	errs := fieldErrors(t, BindJSON(jsonContext(body), &req))
	require.Len(t, errs, 1)
	assert.Equal(t, "items[0].quantity", errs[0].Field)
}

func TestBindJSON_MalformedBody(t *testing.T) {
	var req service.LoginRequest
	err := BindJSON(jsonContext(`{"email":`), &req)

	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.KindBadRequest, appErr.Kind)
	assert.Equal(t, "JSON inválido na requisição", appErr.Message)
}

func TestBindJSON_WrongType(t *testing.T) {
	var req service.LoginRequest
	errs := fieldErrors(t, BindJSON(jsonContext(`{"email":1,"password":"x"}`), &req))
	require.Len(t, errs, 1)
	assert.Equal(t, "email", errs[0].Field)
	assert.Equal(t, "string.base", errs[0].Type)
}

func TestBindQuery(t *testing.T) {
	var q service.RestaurantListQuery
	require.NoError(t, BindQuery(queryContext("page=2&limit=5&sort_order=desc&city=Recife"), &q))
	assert.Equal(t, 2, q.Page)
	assert.Equal(t, 5, q.Limit)
	assert.Equal(t, "Recife", q.City)

	errs := fieldErrors(t, BindQuery(queryContext("sort_order=sideways"), &q))
	require.Len(t, errs, 1)
	assert.Equal(t, "sort_order", errs[0].Field)
	assert.Equal(t, "any.only", errs[0].Type)
}

func TestTranslate_Nil(t *testing.T) {
	assert.NoError(t, Translate(nil))
}

func TestBindJSONWith_RouteFieldsWin(t *testing.T) {
	var req service.CreateTableRequest
	err := BindJSONWith(jsonContext(`{"table_number":3,"restaurant_id":99}`), &req, func() {
		req.RestaurantID = 7
	})
	require.NoError(t, err)
	assert.Equal(t, uint(7), req.RestaurantID)
	assert.Equal(t, 3, req.TableNumber)
}

func TestBindJSONWith_ValidatesAfterFill(t *testing.T) {
	var req service.CreateTableRequest
	errs := fieldErrors(t, BindJSONWith(jsonContext(`{"restaurant_id":1}`), &req, nil))
	require.Len(t, errs, 1)
	assert.Equal(t, "table_number", errs[0].Field)

	appErr, ok := apperror.As(BindJSONWith(jsonContext(``), &req, nil))
	require.True(t, ok)
	assert.Equal(t, apperror.KindBadRequest, appErr.Kind)
}
