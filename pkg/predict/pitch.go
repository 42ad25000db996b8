package predict

import (
	"fmt"
	"time"
)

// Class is the sales-approach bucket a client falls into.
type Class string

const (
	ClassNoHistory Class = "no_history"
	ClassUrgent    Class = "urgent"
	ClassHot       Class = "hot"
	ClassPlanAhead Class = "plan_ahead"
	ClassKeepWarm  Class = "keep_warm"
	ClassDormant   Class = "dormant"
	ClassCheckIn   Class = "check_in"
	ClassFollowUp  Class = "follow_up"
	ClassLoyal     Class = "loyal"
	ClassRecent    Class = "recent"
)

// Classification thresholds.
const (
	OverdueGraceDays  = 7
	HotWindowMonths   = 1
	PlanWindowMonths  = 3
	DormantMonths     = 18
	CheckInMonths     = 12
	FollowUpMonths    = 6
	LoyalMinPurchases = 3
)

// Classify picks the sales-approach class for a client as of now.
//
// With a predicted date: more than OverdueGraceDays past is urgent; anything
// up to HotWindowMonths ahead is hot; up to PlanWindowMonths ahead is plan
// ahead; later is keep warm. Without one, the calendar months since the last
// purchase decide, and frequent buyers (more than LoyalMinPurchases) who are
// otherwise recent count as loyal.
func Classify(last time.Time, next *time.Time, total int, now time.Time) Class {
	if last.IsZero() {
		return ClassNoHistory
	}
	today := dateOf(now)

	if next != nil {
		n := dateOf(*next)
		switch {
		case n.Before(today.AddDate(0, 0, -OverdueGraceDays)):
			return ClassUrgent
		case !n.After(AddMonths(today, HotWindowMonths)):
			return ClassHot
		case !n.After(AddMonths(today, PlanWindowMonths)):
			return ClassPlanAhead
		default:
			return ClassKeepWarm
		}
	}

	months, _ := MonthsBetween(last, today)
	switch {
	case months >= DormantMonths:
		return ClassDormant
	case months >= CheckInMonths:
		return ClassCheckIn
	case months >= FollowUpMonths:
		return ClassFollowUp
	case total > LoyalMinPurchases:
		return ClassLoyal
	default:
		return ClassRecent
	}
}

// Pitch is a classification plus the message shown to the salesperson.
type Pitch struct {
	Class   Class  `json:"class"`
	Message string `json:"message"`
}

// NewPitch classifies a client and renders the matching message.
func NewPitch(last time.Time, next *time.Time, total int, now time.Time) Pitch {
	class := Classify(last, next, total, now)
	return Pitch{Class: class, Message: message(class, last, next, total, now)}
}

func message(class Class, last time.Time, next *time.Time, total int, now time.Time) string {
	if class == ClassNoHistory {
		return "Primeira vez? 🤔 Sem histórico de compras registrado para este cliente."
	}
	lastStr := last.Format("02/01/2006")
	var nextStr string
	if next != nil {
		nextStr = MonthYear(*next)
	}
	months, _ := MonthsBetween(last, now)

	switch class {
	case ClassUrgent:
		return fmt.Sprintf("🚨 Atenção! A compra prevista para %s já passou! Última compra em %s. Contato urgente!", nextStr, lastStr)
	case ClassHot:
		return fmt.Sprintf("📈 Oportunidade Quente! Próxima compra prevista para %s. Ótimo momento para contato! Última compra em %s.", nextStr, lastStr)
	case ClassPlanAhead:
		return fmt.Sprintf("🗓️ Planeje-se! Próxima compra prevista para %s. Prepare sua abordagem! Última compra em %s.", nextStr, lastStr)
	case ClassKeepWarm:
		return fmt.Sprintf("⏳ Compra prevista para %s. Mantenha o relacionamento aquecido! Última compra em %s.", nextStr, lastStr)
	case ClassDormant:
		return fmt.Sprintf("🚨 Alerta de sumiço! Faz %d meses desde a última compra (%s). Hora de reativar esse cliente! 📞", months, lastStr)
	case ClassCheckIn:
		return fmt.Sprintf("👀 E aí, sumido! Faz %d meses desde a última compra (%s). Que tal um alô para esse cliente?", months, lastStr)
	case ClassFollowUp:
		return fmt.Sprintf("⏳ Já se passaram %d meses... (%s). Bom momento para um follow-up e mostrar as novidades!", months, lastStr)
	case ClassLoyal:
		return fmt.Sprintf("👍 Cliente fiel (%d compras)! Última compra em %s. Mantenha o bom trabalho!", total, lastStr)
	default:
		return fmt.Sprintf("✅ Compra recente (%s). Ótimo para fortalecer o relacionamento!", lastStr)
	}
}
