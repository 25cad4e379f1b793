// Пакет selection — состояние выбора файлов для пересылки (forward) в карточке
// раздачи. Чекбоксы в разметке — проекция Selection: сервер применяет операцию
// и заново рендерит группу чекбоксов.
//
// Инвариант: SelectAll == true тогда и только тогда, когда выбраны все элементы
// 1..Total. Массово менять элементы может только ToggleSelectAll, выводить
// SelectAll из элементов — только OnItemToggled.
package selection

import (
	"slices"
	"strconv"
	"sync"
)

// ForwardSelection — выбор, отправляемый в POST /api/shares/{code}/forward.
type ForwardSelection struct {
	// ForwardAll — переслать все файлы раздачи, включая не перечисленные в UI.
	ForwardAll bool `json:"forward_all"`
	// ForwardIndices — номера файлов (1..Total) по возрастанию.
	ForwardIndices []int `json:"forward_indices"`
}

// Selection — состояние выбора одной карточки раздачи.
type Selection struct {
	code      string
	total     int
	selected  map[int]bool
	selectAll bool
}

// New создаёт выбор по умолчанию для раздачи с filesCount файлами:
// {1,2} при двух и более файлах, иначе {1}. SelectAll выводится из того,
// покрывает ли выбор по умолчанию все файлы.
func New(code string, filesCount int) *Selection {
	total := max(1, filesCount)
	s := &Selection{
		code:     code,
		total:    total,
		selected: map[int]bool{1: true},
	}
	if total >= 2 {
		s.selected[2] = true
	}
	s.OnItemToggled()
	return s
}

// FromForm восстанавливает выбор из отправленной формы карточки.
// Некорректные и выходящие за диапазон номера игнорируются.
// selectAll — состояние чекбокса "выбрать все" в форме, как есть.
func FromForm(code string, total int, items []string, selectAll bool) *Selection {
	s := &Selection{
		code:      code,
		total:     max(1, total),
		selected:  make(map[int]bool, len(items)),
		selectAll: selectAll,
	}
	for _, raw := range items {
		i, err := strconv.Atoi(raw)
		if err != nil || i < 1 || i > s.total {
			continue
		}
		s.selected[i] = true
	}
	return s
}

// Code возвращает код раздачи.
func (s *Selection) Code() string { return s.code }

// Total возвращает количество файлов.
func (s *Selection) Total() int { return s.total }

// SelectAll возвращает состояние чекбокса "выбрать все".
func (s *Selection) SelectAll() bool { return s.selectAll }

// Checked сообщает, выбран ли файл с номером i.
func (s *Selection) Checked(i int) bool { return s.selected[i] }

// Items возвращает номера 1..Total (для рендеринга группы чекбоксов).
func (s *Selection) Items() []int {
	items := make([]int, s.total)
	for i := range items {
		items[i] = i + 1
	}
	return items
}

// ToggleSelectAll устанавливает "выбрать все" в checked и приводит каждый
// элемент к тому же состоянию.
func (s *Selection) ToggleSelectAll(checked bool) {
	s.selectAll = checked
	for i := 1; i <= s.total; i++ {
		if checked {
			s.selected[i] = true
		} else {
			delete(s.selected, i)
		}
	}
}

// SetItem меняет состояние одного элемента. SelectAll не трогает:
// после SetItem вызывающий обязан вызвать OnItemToggled.
func (s *Selection) SetItem(i int, checked bool) {
	if i < 1 || i > s.total {
		return
	}
	if checked {
		s.selected[i] = true
	} else {
		delete(s.selected, i)
	}
}

// OnItemToggled пересчитывает "выбрать все" из состояния элементов.
func (s *Selection) OnItemToggled() {
	for i := 1; i <= s.total; i++ {
		if !s.selected[i] {
			s.selectAll = false
			return
		}
	}
	s.selectAll = true
}

// Forward возвращает выбор для пересылки. При включённом "выбрать все"
// отдаётся флаг forward_all без перечисления номеров.
func (s *Selection) Forward() ForwardSelection {
	if s.selectAll {
		return ForwardSelection{ForwardAll: true, ForwardIndices: []int{}}
	}
	indices := make([]int, 0, len(s.selected))
	for i := range s.selected {
		indices = append(indices, i)
	}
	slices.Sort(indices)
	return ForwardSelection{ForwardIndices: indices}
}

// Board — набор выборов карточек одной отрендеренной страницы раздач.
// Безопасен для конкурентного использования.
type Board struct {
	mu         sync.Mutex
	selections map[string]*Selection
}

// NewBoard создаёт пустой Board.
func NewBoard() *Board {
	return &Board{selections: make(map[string]*Selection)}
}

// Init регистрирует карточку с выбором по умолчанию и возвращает её выбор.
func (b *Board) Init(code string, filesCount int) *Selection {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := New(code, filesCount)
	b.selections[code] = s
	return s
}

// Put заменяет выбор карточки (например, восстановленный из формы).
func (b *Board) Put(s *Selection) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.selections[s.code] = s
}

// ToggleSelectAll применяет "выбрать все" карточки code ко всем её total
// элементам. Флаг к этому моменту уже переключён пользователем (Put из формы).
// Незарегистрированная карточка создаётся с выбором по умолчанию.
func (b *Board) ToggleSelectAll(code string, total int) *Selection {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.lookup(code, total)
	s.ToggleSelectAll(s.selectAll)
	return s
}

// OnItemToggled пересчитывает "выбрать все" карточки code из состояния
// её элементов. Элементы не меняет.
func (b *Board) OnItemToggled(code string, total int) *Selection {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.lookup(code, total)
	s.OnItemToggled()
	return s
}

// GetSelection возвращает выбор карточки для пересылки.
// ok == false, если карточка не зарегистрирована.
func (b *Board) GetSelection(code string) (ForwardSelection, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.selections[code]
	if !ok {
		return ForwardSelection{}, false
	}
	return s.Forward(), true
}

// lookup возвращает выбор карточки, создавая его при отсутствии
// или при изменении количества файлов. Вызывается под b.mu.
func (b *Board) lookup(code string, total int) *Selection {
	s, ok := b.selections[code]
	if !ok || s.total != max(1, total) {
		s = New(code, total)
		b.selections[code] = s
	}
	return s
}
