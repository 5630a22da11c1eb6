package service

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/qs3c/ipl_server/internal/model"
	"github.com/qs3c/ipl_server/internal/model/dto"
	"github.com/qs3c/ipl_server/internal/pkg/billing"
	"github.com/qs3c/ipl_server/internal/repository"
)

// ErrUnknownHouseType 房屋类型无法识别
var ErrUnknownHouseType = errors.New("unknown house type")

type UserService struct {
	userRepo *repository.UserRepository
}

func NewUserService(userRepo *repository.UserRepository) *UserService {
	return &UserService{
		userRepo: userRepo,
	}
}

// GetProfile 获取用户详情
func (s *UserService) GetProfile(userID string) (*dto.UserInfo, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return buildUserInfo(user), nil
}

// List 全部用户（管理员视图）
func (s *UserService) List() ([]*dto.UserInfo, error) {
	users, err := s.userRepo.List()
	if err != nil {
		return nil, err
	}

	items := make([]*dto.UserInfo, 0, len(users))
	for _, u := range users {
		items = append(items, buildUserInfo(u))
	}
	return items, nil
}

// Create 管理员创建住户账号。
// 房屋类型在录入时校验，已有数据中的不规范写法仍由账单生成时跳过。
func (s *UserService) Create(req *dto.CreateUserRequest) (*dto.UserInfo, error) {
	exists, err := s.userRepo.ExistsByUsername(req.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUsernameExists
	}

	user := &model.User{
		Username:    req.Username,
		Name:        req.Name,
		Address:     req.Address,
		HouseNumber: req.HouseNumber,
		Phone:       req.Phone,
		IsAdmin:     req.IsAdmin,
	}

	if req.HouseType != "" {
		if _, ok := billing.NormalizeHouseType(req.HouseType); !ok {
			return nil, ErrUnknownHouseType
		}
		houseType := req.HouseType
		user.HouseType = &houseType
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = string(hashedPassword)

	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	return buildUserInfo(user), nil
}
