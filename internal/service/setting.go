package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sakif/grid-manager/internal/apperror"
	"github.com/sakif/grid-manager/internal/model"
	"github.com/sakif/grid-manager/internal/repository"
	"github.com/sakif/grid-manager/internal/schema"
)

// SettingService exposes the key/value settings and the typed login page
// customization stored among them.
type SettingService struct {
	settings repository.SettingRepository
	logger   *zap.Logger
}

func NewSettingService(settings repository.SettingRepository, logger *zap.Logger) *SettingService {
	return &SettingService{settings: settings, logger: logger}
}

func (s *SettingService) List(ctx context.Context) ([]model.Setting, error) {
	return s.settings.GetAllSettings(ctx)
}

func (s *SettingService) Get(ctx context.Context, key string) (*model.Setting, error) {
	return s.settings.GetSetting(ctx, key)
}

// Put creates or replaces the setting under key.
func (s *SettingService) Put(ctx context.Context, key, value string) (*model.Setting, error) {
	in := model.InsertSetting{Key: strings.TrimSpace(key), Value: value}
	if err := schema.Validate(in); err != nil {
		return nil, err
	}

	st, err := s.settings.UpsertSetting(ctx, in.Key, in.Value)
	if err != nil {
		return nil, fmt.Errorf("saving setting %q: %w", in.Key, err)
	}
	s.logger.Info("setting saved", zap.String("key", st.Key))
	return st, nil
}

func (s *SettingService) Delete(ctx context.Context, key string) error {
	return s.settings.DeleteSetting(ctx, key)
}

// GetLoginCustomization returns the stored customization, or the default
// when none is stored or the stored value is not valid JSON.
func (s *SettingService) GetLoginCustomization(ctx context.Context) (model.LoginCustomization, error) {
	st, err := s.settings.GetSetting(ctx, model.LoginCustomizationKey)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return model.DefaultLoginCustomization(), nil
		}
		return model.LoginCustomization{}, fmt.Errorf("loading login customization: %w", err)
	}

	var lc model.LoginCustomization
	if err := json.Unmarshal([]byte(st.Value), &lc); err != nil {
		s.logger.Warn("stored login customization is malformed, using default", zap.Error(err))
		return model.DefaultLoginCustomization(), nil
	}
	return lc, nil
}

// UpdateLoginCustomization validates and stores lc.
func (s *SettingService) UpdateLoginCustomization(ctx context.Context, lc model.LoginCustomization) (model.LoginCustomization, error) {
	if err := schema.Validate(lc); err != nil {
		return model.LoginCustomization{}, err
	}

	raw, err := json.Marshal(lc)
	if err != nil {
		return model.LoginCustomization{}, fmt.Errorf("encoding login customization: %w", err)
	}

	if _, err := s.settings.UpsertSetting(ctx, model.LoginCustomizationKey, string(raw)); err != nil {
		return model.LoginCustomization{}, fmt.Errorf("saving login customization: %w", err)
	}
	s.logger.Info("login customization updated", zap.String("displayType", lc.DisplayType))
	return lc, nil
}
