package selection

import (
	"reflect"
	"testing"
)

// TestNew_Defaults проверяет выбор по умолчанию и выведенный "выбрать все".
func TestNew_Defaults(t *testing.T) {
	tests := []struct {
		name          string
		filesCount    int
		wantItems     []int
		wantSelectAll bool
	}{
		{"один файл", 1, []int{1}, true},
		{"ноль файлов — как один", 0, []int{1}, true},
		{"два файла", 2, []int{1, 2}, true},
		{"четыре файла", 4, []int{1, 2}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New("abc", tt.filesCount)
			var checked []int
			for _, i := range s.Items() {
				if s.Checked(i) {
					checked = append(checked, i)
				}
			}
			if !reflect.DeepEqual(checked, tt.wantItems) {
				t.Errorf("выбраны %v, ожидалось %v", checked, tt.wantItems)
			}
			if s.SelectAll() != tt.wantSelectAll {
				t.Errorf("SelectAll = %v, ожидалось %v", s.SelectAll(), tt.wantSelectAll)
			}
		})
	}
}

// TestToggleSelectAll_AppliesToEveryItem проверяет, что после ToggleSelectAll
// все элементы совпадают с новым состоянием "выбрать все".
func TestToggleSelectAll_AppliesToEveryItem(t *testing.T) {
	for total := 1; total <= 8; total++ {
		for _, checked := range []bool{true, false} {
			s := New("code", total)
			s.ToggleSelectAll(checked)
			for i := 1; i <= total; i++ {
				if s.Checked(i) != checked {
					t.Fatalf("total=%d checked=%v: элемент %d = %v", total, checked, i, s.Checked(i))
				}
			}
			if s.SelectAll() != checked {
				t.Fatalf("total=%d: SelectAll = %v, ожидалось %v", total, s.SelectAll(), checked)
			}
		}
	}
}

// TestOnItemToggled_AllSubsets перебирает все подмножества {1..F} и проверяет,
// что "выбрать все" включён только для полного набора.
func TestOnItemToggled_AllSubsets(t *testing.T) {
	for total := 1; total <= 6; total++ {
		for mask := 0; mask < 1<<total; mask++ {
			s := New("code", total)
			s.ToggleSelectAll(false)
			for i := 1; i <= total; i++ {
				s.SetItem(i, mask&(1<<(i-1)) != 0)
			}
			s.OnItemToggled()

			full := mask == 1<<total-1
			if s.SelectAll() != full {
				t.Fatalf("total=%d mask=%b: SelectAll = %v, ожидалось %v", total, mask, s.SelectAll(), full)
			}
		}
	}
}

// TestForward_SelectAllIgnoresItems проверяет, что при "выбрать все"
// возвращается forward_all без номеров независимо от элементов.
func TestForward_SelectAllIgnoresItems(t *testing.T) {
	s := FromForm("code", 5, []string{"2"}, true)
	got := s.Forward()
	if !got.ForwardAll {
		t.Error("ожидался ForwardAll = true")
	}
	if got.ForwardIndices == nil || len(got.ForwardIndices) != 0 {
		t.Errorf("ожидался пустой (не nil) ForwardIndices, получен %v", got.ForwardIndices)
	}
}

// TestForward_SortedIndices проверяет сортировку номеров по возрастанию.
func TestForward_SortedIndices(t *testing.T) {
	s := FromForm("code", 6, []string{"5", "1", "3", "x", "9", "0", "3"}, false)
	got := s.Forward()
	if got.ForwardAll {
		t.Error("ожидался ForwardAll = false")
	}
	if want := []int{1, 3, 5}; !reflect.DeepEqual(got.ForwardIndices, want) {
		t.Errorf("ForwardIndices = %v, ожидалось %v", got.ForwardIndices, want)
	}
}

// TestBoard проверяет операции над набором карточек.
func TestBoard(t *testing.T) {
	b := NewBoard()
	b.Init("one", 1)
	b.Init("four", 4)

	if _, ok := b.GetSelection("missing"); ok {
		t.Error("GetSelection для незарегистрированной карточки должен вернуть ok=false")
	}

	sel, _ := b.GetSelection("one")
	if !sel.ForwardAll {
		t.Error("раздача из одного файла по умолчанию должна пересылаться целиком")
	}

	sel, _ = b.GetSelection("four")
	if sel.ForwardAll || !reflect.DeepEqual(sel.ForwardIndices, []int{1, 2}) {
		t.Errorf("неожиданный выбор по умолчанию: %+v", sel)
	}

	// Пользователь включил "выбрать все": форма приходит с новым флагом.
	b.Put(FromForm("four", 4, []string{"1", "2"}, true))
	s := b.ToggleSelectAll("four", 4)
	for _, i := range s.Items() {
		if !s.Checked(i) {
			t.Errorf("элемент %d должен быть выбран после ToggleSelectAll", i)
		}
	}
	sel, _ = b.GetSelection("four")
	if !sel.ForwardAll {
		t.Error("после ToggleSelectAll ожидался ForwardAll")
	}

	// Пользователь снял элемент 3: флаг в форме ещё включён.
	b.Put(FromForm("four", 4, []string{"1", "2", "4"}, true))
	s = b.OnItemToggled("four", 4)
	if s.SelectAll() {
		t.Error("снятие элемента должно выключить \"выбрать все\"")
	}
	if s.Checked(3) || !s.Checked(4) {
		t.Error("OnItemToggled не должен менять элементы")
	}
	sel, _ = b.GetSelection("four")
	if want := []int{1, 2, 4}; !reflect.DeepEqual(sel.ForwardIndices, want) {
		t.Errorf("ForwardIndices = %v, ожидалось %v", sel.ForwardIndices, want)
	}

	b.Put(FromForm("four", 4, []string{"1", "2", "3", "4"}, false))
	s = b.OnItemToggled("four", 4)
	if !s.SelectAll() {
		t.Error("возврат всех элементов должен включить \"выбрать все\"")
	}

	// Снятие "выбрать все" снимает все элементы.
	b.Put(FromForm("four", 4, []string{"1", "2", "3", "4"}, false))
	s = b.ToggleSelectAll("four", 4)
	sel, _ = b.GetSelection("four")
	if s.SelectAll() || sel.ForwardAll || len(sel.ForwardIndices) != 0 {
		t.Errorf("после снятия \"выбрать все\" выбор должен быть пуст: %+v", sel)
	}
}
