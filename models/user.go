package models

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"bitbucket.org/mmdatafocus/chores_backend/config"
	"bitbucket.org/mmdatafocus/chores_backend/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type User struct {
	ID               int              `gorm:"primary_key" json:"id"`
	Username         string           `gorm:"size:100;not null;unique" json:"username" binding:"required"`
	Name             string           `gorm:"size:100;not null" json:"name" binding:"required"`
	Email            *string          `gorm:"size:100;unique" json:"email"`
	Phone            string           `gorm:"size:20" json:"phone"`
	Password         string           `gorm:"size:255;not null" json:"-"`
	Role             UserRole         `gorm:"size:10;not null;default:CHILD" json:"role"`
	ParentId         int              `gorm:"index;default:0" json:"parent_id"`
	Balance          decimal.Decimal  `gorm:"type:decimal(20,4);default:0" json:"balance"`
	MonthlyAllowance *decimal.Decimal `gorm:"type:decimal(20,4)" json:"monthly_allowance"`
	IsActive         *bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedAt        time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewChild struct {
	Username         string           `json:"username" binding:"required"`
	Name             string           `json:"name" binding:"required"`
	Email            string           `json:"email"`
	Phone            string           `json:"phone"`
	Password         string           `json:"password" binding:"required"`
	MonthlyAllowance *decimal.Decimal `json:"monthly_allowance"`
}

/*
caches:
	User:$username
	Token:$token
	Tokens:$username (set)
	OnboardingCode:$code
*/

func (user User) RemoveInstanceRedis() error {
	if err := config.RemoveRedisKey("User:" + user.Username); err != nil {
		return err
	}
	return nil
}

func (result *User) PrepareGive() {
	result.Password = ""
}

type LoginInfo struct {
	Token   string          `json:"token"`
	Name    string          `json:"name"`
	Role    UserRole        `json:"role"`
	Balance decimal.Decimal `json:"balance"`
}

func Login(ctx context.Context, username string, password string) (*LoginInfo, error) {

	db := config.GetDB()
	var result LoginInfo

	user := User{}

	// get User info, redis or db
	exists, err := config.GetRedisObject("User:"+username, &user)
	if err != nil {
		return nil, err
	}
	if !exists {
		err = db.WithContext(ctx).Model(&User{}).Where("username = ?", username).Take(&user).Error
		if err != nil {
			return nil, utils.ErrorRecordNotFound
		}
		if err := config.SetRedisObject("User:"+username, &user, utils.TokenLifespan()); err != nil {
			return nil, err
		}
	}

	if user.IsActive != nil && !*user.IsActive {
		return nil, errors.New("user is inactive")
	}

	if err := utils.ComparePassword(user.Password, password); err != nil {
		return nil, utils.ErrorUnauthorized
	}

	token, err := utils.JwtGenerate(user.ID, string(user.Role))
	if err != nil {
		return nil, err
	}

	// store session; TTL matches the jwt lifespan
	if err := config.SetRedisValue("Token:"+token, fmt.Sprint(user.ID), utils.TokenLifespan()); err != nil {
		return nil, err
	}
	if err := config.AddRedisSet("Tokens:"+username, token); err != nil {
		return nil, err
	}

	result = LoginInfo{
		Token:   token,
		Name:    user.Name,
		Role:    user.Role,
		Balance: user.Balance,
	}
	return &result, nil
}

// destroy current session
func Logout(ctx context.Context) (bool, error) {
	token, ok := utils.GetTokenFromContext(ctx)
	if !ok || token == "" {
		return false, errors.New("token is required")
	}
	err := config.RemoveRedisKey("Token:" + fmt.Sprint(token))
	if err != nil {
		return false, nil
	}
	// remove current token from tokens list
	username, ok := utils.GetUsernameFromContext(ctx)
	if ok && username != "" {
		if err := config.RemoveRedisSetMember("Tokens:"+username, token); err != nil {
			return false, err
		}
	}
	return true, nil
}

// LogoutAllDevices revokes every session the user holds, across devices.
// Returns the number of tokens revoked.
func LogoutAllDevices(ctx context.Context) (int, error) {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == 0 {
		return 0, utils.ErrorUnauthorized
	}
	user, err := GetUser(ctx, userId)
	if err != nil {
		return 0, err
	}

	tokens, err := config.GetRedisSetMembers("Tokens:" + user.Username)
	if err != nil {
		return 0, err
	}
	// the current token is revoked even when the tokens set has drifted
	// and no longer lists it
	if current, ok := utils.GetTokenFromContext(ctx); ok && current != "" {
		tokens = append(tokens, current)
	}

	revoked := 0
	for _, token := range utils.UniqueSlice(tokens) {
		if err := config.RemoveRedisKey("Token:" + token); err != nil {
			return revoked, err
		}
		revoked++
	}
	if err := config.RemoveRedisKey("Tokens:" + user.Username); err != nil {
		return revoked, err
	}
	return revoked, nil
}

func (input *NewChild) validate(ctx context.Context) error {
	if input.Phone != "" {
		if err := utils.ValidatePhoneNumber(input.Phone, utils.CountryCode); err != nil {
			return err
		}
	}
	if input.Email != "" && !utils.IsValidEmail(input.Email) {
		return errors.New("invalid email")
	}
	if input.MonthlyAllowance != nil && input.MonthlyAllowance.IsNegative() {
		return errors.New("monthly allowance cannot be negative")
	}
	return nil
}

// CreateChild creates a child account under the calling parent.
// The parent id comes from the session; a missing parent is an
// invalid-argument error, not a silent default.
func CreateChild(ctx context.Context, input *NewChild) (*User, error) {
	parentId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || parentId == 0 {
		return nil, utils.ErrorInvalidArgument
	}
	role, _ := utils.GetUserRoleFromContext(ctx)
	if UserRole(role) != UserRoleParent {
		return nil, utils.ErrorUnauthorized
	}

	if err := input.validate(ctx); err != nil {
		return nil, err
	}
	// unique constraints also exist on the table; checking up front turns
	// the duplicate into an invalid-argument instead of a raw mysql error
	if err := utils.ValidateUnique[User](ctx, "username", input.Username, 0); err != nil {
		return nil, err
	}
	if input.Email != "" {
		if err := utils.ValidateUnique[User](ctx, "email", input.Email, 0); err != nil {
			return nil, err
		}
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	child := User{
		Username:         input.Username,
		Name:             input.Name,
		Phone:            input.Phone,
		Password:         string(hashed),
		Role:             UserRoleChild,
		ParentId:         parentId,
		Balance:          decimal.Zero,
		MonthlyAllowance: input.MonthlyAllowance,
		IsActive:         utils.NewTrue(),
	}
	if input.Email != "" {
		child.Email = &input.Email
	}
	if err := db.WithContext(ctx).Create(&child).Error; err != nil {
		return nil, err
	}

	child.PrepareGive()
	return &child, nil
}

func GetUser(ctx context.Context, id int) (*User, error) {
	user, err := utils.FetchSingleModel[User](ctx, id)
	if err != nil {
		return nil, err
	}
	user.PrepareGive()
	return user, nil
}

// GetChildren lists the calling parent's child accounts.
func GetChildren(ctx context.Context) ([]*User, error) {
	parentId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || parentId == 0 {
		return nil, utils.ErrorInvalidArgument
	}

	db := config.GetDB()
	var children []*User
	err := db.WithContext(ctx).Where("parent_id = ? AND role = ?", parentId, UserRoleChild).Find(&children).Error
	if err != nil {
		return nil, err
	}
	for _, child := range children {
		child.PrepareGive()
	}
	return children, nil
}

// GetChildOfParent fetches a child account and enforces parent ownership.
func GetChildOfParent(ctx context.Context, parentId int, childId int) (*User, error) {
	child, err := utils.FetchSingleModel[User](ctx, childId)
	if err != nil {
		return nil, err
	}
	if child.Role != UserRoleChild || child.ParentId != parentId {
		return nil, utils.ErrorUnauthorized
	}
	return child, nil
}

// UpdateMonthlyAllowance sets the child's monthly allowance budget.
func UpdateMonthlyAllowance(ctx context.Context, childId int, budget decimal.Decimal) (*User, error) {
	parentId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || parentId == 0 {
		return nil, utils.ErrorInvalidArgument
	}
	child, err := GetChildOfParent(ctx, parentId, childId)
	if err != nil {
		return nil, err
	}
	if budget.IsNegative() {
		return nil, utils.ErrorInvalidArgument
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(child).Update("monthly_allowance", budget).Error; err != nil {
		return nil, err
	}
	if err := child.RemoveInstanceRedis(); err != nil {
		return nil, err
	}
	child.PrepareGive()
	return child, nil
}

const onboardingCodeTTL = 24 * time.Hour

// GenerateOnboardingCode issues a one-time code linking a device to the
// child account. Codes live in redis with a TTL so abandoned codes expire
// instead of accumulating.
func GenerateOnboardingCode(ctx context.Context, childId int) (string, error) {
	parentId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || parentId == 0 {
		return "", utils.ErrorInvalidArgument
	}
	if _, err := GetChildOfParent(ctx, parentId, childId); err != nil {
		return "", err
	}

	code := uuid.NewString()[:8]
	if err := config.SetRedisValue("OnboardingCode:"+code, fmt.Sprint(childId), onboardingCodeTTL); err != nil {
		return "", err
	}
	return code, nil
}

// RedeemOnboardingCode resolves and consumes a one-time code.
func RedeemOnboardingCode(ctx context.Context, code string) (*User, error) {
	val, exists, err := config.GetDelRedisValue("OnboardingCode:" + code)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, utils.ErrorRecordNotFound
	}
	childId, err := strconv.Atoi(val)
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return GetUser(ctx, childId)
}
