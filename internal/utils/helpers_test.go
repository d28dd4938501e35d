package utils

import (
	"reflect"
	"testing"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Region I", "Region_I"},
		{"NCR - National Capital Region", "NCR_-_National_Capital_Region"},
		{"City of Las Piñas", "City_of_Las_Piñas"},
		{"Cotabato (North Cotabato)", "Cotabato_North_Cotabato"},
		{"Sto. Niño", "Sto_Niño"},
		{"Region IV-A (CALABARZON)", "Region_IV-A_CALABARZON"},
		{"2020", "2020"},
		{"../..", "unnamed"},
		{"", "unnamed"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := SanitizeFilename(tt.input); got != tt.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseYears(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []int
		wantErr bool
	}{
		{"单个年度", "2020", []int{2020}, false},
		{"逗号分隔", "2020, 2019", []int{2019, 2020}, false},
		{"区间", "2017-2020", []int{2017, 2018, 2019, 2020}, false},
		{"区间与列表混合并去重", "2017-2018,2018,2024", []int{2017, 2018, 2024}, false},
		{"反向区间", "2020-2017", nil, true},
		{"非数字", "twenty", nil, true},
		{"空字符串", " , ", nil, true},
		{"超出范围", "20", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseYears(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseYears() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseYears() = %v, want %v", got, tt.want)
			}
		})
	}

	if got := FormatYears([]int{2019, 2020}); got != "2019,2020" {
		t.Errorf("FormatYears() = %q", got)
	}
}
