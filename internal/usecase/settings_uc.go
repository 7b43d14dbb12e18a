package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/phenrril/marketplace/internal/domain"
)

const settingsCachePrefix = "setting:"

// SettingsUC lee la configuración del negocio a través de un cache con TTL.
// Ante cualquier error del cache se lee directo del store.
type SettingsUC struct {
	Settings domain.SettingRepo
	Cache    domain.Cache
	TTL      time.Duration
}

type cachedSetting struct {
	Value string             `json:"v"`
	Type  domain.SettingType `json:"t"`
}

// Get devuelve el setting de key, o nil si la clave no está configurada.
func (uc *SettingsUC) Get(ctx context.Context, key string) (*domain.Setting, error) {
	ck := settingsCachePrefix + key
	if uc.Cache != nil {
		raw, ok, err := uc.Cache.Get(ctx, ck)
		switch {
		case err != nil:
			log.Warn().Err(err).Str("key", key).Msg("falló lectura de cache de settings")
		case ok:
			var cs cachedSetting
			if jerr := json.Unmarshal([]byte(raw), &cs); jerr == nil {
				return &domain.Setting{Key: key, Value: cs.Value, Type: cs.Type}, nil
			}
			_ = uc.Cache.Delete(ctx, ck)
		}
	}

	s, err := uc.Settings.Get(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("leer setting %s: %w", key, err)
	}

	if uc.Cache != nil {
		buf, _ := json.Marshal(cachedSetting{Value: s.Value, Type: s.Type})
		if err := uc.Cache.Set(ctx, ck, string(buf), uc.ttl()); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("falló escritura de cache de settings")
		}
	}
	return s, nil
}

// Bool devuelve el valor booleano de key, o def si falta o no se puede parsear.
func (uc *SettingsUC) Bool(ctx context.Context, key string, def bool) (bool, error) {
	s, err := uc.Get(ctx, key)
	if err != nil || s == nil {
		return def, err
	}
	v, perr := strconv.ParseBool(strings.TrimSpace(s.Value))
	if perr != nil {
		return def, nil
	}
	return v, nil
}

// Decimal devuelve el valor numérico de key, o def si falta o no se puede parsear.
func (uc *SettingsUC) Decimal(ctx context.Context, key string, def decimal.Decimal) (decimal.Decimal, error) {
	s, err := uc.Get(ctx, key)
	if err != nil || s == nil {
		return def, err
	}
	v, perr := decimal.NewFromString(strings.TrimSpace(s.Value))
	if perr != nil {
		return def, nil
	}
	return v, nil
}

// GetDeliverySettings toma una foto de las tres claves de envío. Los valores
// faltantes o mal formados quedan sin definir, no se informan como error.
func (uc *SettingsUC) GetDeliverySettings(ctx context.Context) (domain.DeliverySettings, error) {
	var out domain.DeliverySettings

	enabled, err := uc.Get(ctx, domain.SettingDeliveryEnabled)
	if err != nil {
		return out, err
	}
	if enabled != nil {
		if v, perr := strconv.ParseBool(strings.TrimSpace(enabled.Value)); perr == nil {
			out.IsDeliveryEnabled = &v
		}
	}

	fee, err := uc.Get(ctx, domain.SettingDeliveryFee)
	if err != nil {
		return out, err
	}
	out.DeliveryFee = parseNullDecimal(fee)

	threshold, err := uc.Get(ctx, domain.SettingFreeDeliveryThreshold)
	if err != nil {
		return out, err
	}
	out.FreeDeliveryThreshold = parseNullDecimal(threshold)
	return out, nil
}

// QuoteDelivery cotiza el envío para subtotal con la configuración vigente.
func (uc *SettingsUC) QuoteDelivery(ctx context.Context, subtotal decimal.Decimal) (domain.DeliveryQuote, error) {
	s, err := uc.GetDeliverySettings(ctx)
	if err != nil {
		return domain.DeliveryQuote{}, err
	}
	return CalculateDeliveryFee(subtotal, s), nil
}

// Set hace upsert del valor e invalida la copia en cache, así los lectores lo
// ven antes de que venza el TTL.
func (uc *SettingsUC) Set(ctx context.Context, key, value string, typ domain.SettingType) (*domain.Setting, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, domain.InvalidInput("setting key is required")
	}
	if typ == "" {
		typ = domain.SettingTypeString
	}
	if err := checkSettingValue(value, typ); err != nil {
		return nil, err
	}
	s := &domain.Setting{Key: key, Value: value, Type: typ}
	if err := uc.Settings.Upsert(ctx, s); err != nil {
		return nil, fmt.Errorf("guardar setting %s: %w", key, err)
	}
	uc.Invalidate(ctx, key)
	return s, nil
}

func (uc *SettingsUC) List(ctx context.Context) ([]domain.Setting, error) {
	return uc.Settings.List(ctx)
}

func (uc *SettingsUC) Invalidate(ctx context.Context, key string) {
	if uc.Cache == nil {
		return
	}
	if err := uc.Cache.Delete(ctx, settingsCachePrefix+key); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("falló invalidación de cache de settings")
	}
}

func (uc *SettingsUC) ttl() time.Duration {
	if uc.TTL <= 0 {
		return 5 * time.Minute
	}
	return uc.TTL
}

func checkSettingValue(value string, typ domain.SettingType) error {
	v := strings.TrimSpace(value)
	switch typ {
	case domain.SettingTypeBoolean:
		if _, err := strconv.ParseBool(v); err != nil {
			return domain.InvalidInput("value %q is not a boolean", value)
		}
	case domain.SettingTypeNumber:
		if _, err := decimal.NewFromString(v); err != nil {
			return domain.InvalidInput("value %q is not a number", value)
		}
	case domain.SettingTypeJSON:
		if !json.Valid([]byte(v)) {
			return domain.InvalidInput("value is not valid json")
		}
	case domain.SettingTypeString:
	default:
		return domain.InvalidInput("unknown setting type %q", typ)
	}
	return nil
}

func parseNullDecimal(s *domain.Setting) decimal.NullDecimal {
	if s == nil {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s.Value))
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}
