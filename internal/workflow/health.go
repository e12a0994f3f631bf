package workflow

import (
	"context"
	"fmt"
	"strings"

	"hiretrack/internal/anonymize"
)

// ComponentHealth summarizes the readiness of one workflow dependency.
type ComponentHealth struct {
	Name   string
	Ready  bool
	Detail string
}

// HealthyComponent constructs a ready ComponentHealth record.
func HealthyComponent(name string) ComponentHealth {
	return ComponentHealth{Name: name, Ready: true}
}

// UnhealthyComponent constructs an unhealthy ComponentHealth record with context detail.
func UnhealthyComponent(name, detail string) ComponentHealth {
	return ComponentHealth{Name: name, Ready: false, Detail: detail}
}

// Health checks the database, the notification sink, and the anonymization salt.
func (m *Manager) Health(ctx context.Context) []ComponentHealth {
	var out []ComponentHealth

	db, err := m.store.CheckHealth(ctx)
	switch {
	case err != nil:
		out = append(out, UnhealthyComponent("database", err.Error()))
	case len(db.MissingTables) > 0:
		out = append(out, UnhealthyComponent("database", "missing tables: "+strings.Join(db.MissingTables, ", ")))
	case !db.IntegrityCheck:
		out = append(out, UnhealthyComponent("database", "integrity check failed"))
	default:
		out = append(out, HealthyComponent("database"))
	}

	sink := m.dispatcher.ServiceName()
	if sink == "none" {
		out = append(out, UnhealthyComponent("notifications", "sink disabled; events are marked delivered without sending"))
	} else {
		out = append(out, HealthyComponent("notifications"))
	}

	if _, err := anonymize.NewHasher(m.cfg.Anonymize.Salt); err != nil {
		out = append(out, UnhealthyComponent("anonymize", fmt.Sprintf("anonymize.salt: %v", err)))
	} else {
		out = append(out, HealthyComponent("anonymize"))
	}
	return out
}
