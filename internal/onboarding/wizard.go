package onboarding

import "errors"

// Ошибки мастера
var (
	ErrLastStep      = errors.New("onboarding: already at the last step")
	ErrFirstStep     = errors.New("onboarding: already at the first step")
	ErrNotLastStep   = errors.New("onboarding: completion is only possible from the last step")
	ErrCompleted     = errors.New("onboarding: already completed")
	ErrUnknownOption = errors.New("onboarding: unknown option for current step")
)

// Preferences — выбор пользователя, сохраняется под ключом userPreferences.
// Порядок значений совпадает с порядком выбора.
type Preferences struct {
	Purpose       []string `json:"purpose"`
	Travel        []string `json:"travel"`
	Entertainment []string `json:"entertainment"`
}

func (p *Preferences) list(t StepType) *[]string {
	switch t {
	case StepPurpose:
		return &p.Purpose
	case StepTravel:
		return &p.Travel
	case StepEntertainment:
		return &p.Entertainment
	}
	return nil
}

// Wizard — состояние мастера онбординга. Нулевое значение не готово,
// используйте NewWizard.
type Wizard struct {
	Step       int         `json:"step"`
	Selections Preferences `json:"selections"`
	Completed  bool        `json:"completed"`
}

// NewWizard возвращает мастер на первом шаге без выбора.
func NewWizard() *Wizard {
	return &Wizard{
		Step: 1,
		Selections: Preferences{
			Purpose:       []string{},
			Travel:        []string{},
			Entertainment: []string{},
		},
	}
}

// Current возвращает описание текущего шага.
func (w *Wizard) Current() Step {
	return Steps[w.Step-1]
}

// Valid проверяет восстановленное из кеша состояние.
func (w *Wizard) Valid() bool {
	return w.Step >= 1 && w.Step <= len(Steps)
}

// Progress возвращает процент прохождения: шаг 1 из 4 — 25.
func (w *Wizard) Progress() int {
	return w.Step * 100 / len(Steps)
}

// Selected сообщает, выбран ли вариант на текущем шаге.
func (w *Wizard) Selected(option string) bool {
	l := w.Selections.list(w.Current().Type)
	if l == nil {
		return false
	}
	for _, v := range *l {
		if v == option {
			return true
		}
	}
	return false
}

func (w *Wizard) checkOption(option string) (*[]string, error) {
	if w.Completed {
		return nil, ErrCompleted
	}
	step := w.Current()
	if !step.HasOption(option) {
		return nil, ErrUnknownOption
	}
	return w.Selections.list(step.Type), nil
}

// Select добавляет вариант; повторный выбор ничего не меняет.
func (w *Wizard) Select(option string) error {
	l, err := w.checkOption(option)
	if err != nil {
		return err
	}
	if !w.Selected(option) {
		*l = append(*l, option)
	}
	return nil
}

// Deselect убирает вариант; снятие невыбранного ничего не меняет.
func (w *Wizard) Deselect(option string) error {
	l, err := w.checkOption(option)
	if err != nil {
		return err
	}
	out := (*l)[:0]
	for _, v := range *l {
		if v != option {
			out = append(out, v)
		}
	}
	*l = out
	return nil
}

// Toggle переключает вариант: двойное переключение возвращает исходное состояние.
func (w *Wizard) Toggle(option string) error {
	if _, err := w.checkOption(option); err != nil {
		return err
	}
	if w.Selected(option) {
		return w.Deselect(option)
	}
	return w.Select(option)
}

// Next переходит к следующему шагу.
func (w *Wizard) Next() error {
	if w.Completed {
		return ErrCompleted
	}
	if w.Step >= len(Steps) {
		return ErrLastStep
	}
	w.Step++
	return nil
}

// Back возвращается на предыдущий шаг, выбор сохраняется.
func (w *Wizard) Back() error {
	if w.Completed {
		return ErrCompleted
	}
	if w.Step <= 1 {
		return ErrFirstStep
	}
	w.Step--
	return nil
}

// Complete завершает мастер. Переход необратим.
func (w *Wizard) Complete() (Preferences, error) {
	if w.Completed {
		return Preferences{}, ErrCompleted
	}
	if w.Step != len(Steps) {
		return Preferences{}, ErrNotLastStep
	}
	w.Completed = true
	return w.Selections, nil
}
