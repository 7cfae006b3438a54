package lifecycle

import (
	"vpsrental/internal/app/ds"

	"github.com/samber/lo"
)

// переходы между статусами заявки; статусы без записи терминальные
var transitions = map[ds.Status][]ds.Status{
	ds.StatusDraft:  {ds.StatusFormed, ds.StatusDeleted},
	ds.StatusFormed: {ds.StatusCompleted, ds.StatusRejected, ds.StatusDeleted},
}

// CanTransition сообщает, разрешён ли переход from -> to
func CanTransition(from, to ds.Status) bool {
	return lo.Contains(transitions[from], to)
}

// isTerminal сообщает, что из статуса нет переходов
func isTerminal(s ds.Status) bool {
	return len(transitions[s]) == 0
}

// статусы, которые видны в общем списке заявок
var listedStatuses = []ds.Status{ds.StatusFormed, ds.StatusCompleted, ds.StatusRejected}

// статусы, которые модератор может выставить
func isModerationResult(s ds.Status) bool {
	return s == ds.StatusCompleted || s == ds.StatusRejected
}
