package careuser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sodam-care/service-care-go/pkg/apperror"
)

func TestParseCSV(t *testing.T) {
	doc := "\ufeffName,Age,Gender,Address,MainCondition,AISchedule,Manager,RiskLevel\n" +
		"Kim,82,F,\"Seoul, Mapo\",dementia,08:00,Lee,HIGH\n" +
		"Park,77,M,Busan,diabetes,09:30,,\n"

	rows, err := ParseCSV(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Kim", rows[0].Name)
	require.NotNil(t, rows[0].Age)
	assert.Equal(t, 82, *rows[0].Age)
	assert.Equal(t, "Seoul, Mapo", rows[0].Address)
	require.NotNil(t, rows[0].Manager)
	assert.Equal(t, "Lee", *rows[0].Manager)
	assert.Equal(t, "HIGH", rows[0].RiskLevel)

	assert.Nil(t, rows[1].Manager)
	assert.Nil(t, rows[1].LastAIReport)
	assert.Equal(t, "", rows[1].RiskLevel)
}

func TestParseCSV_Errors(t *testing.T) {
	cases := map[string]string{
		"empty":          "",
		"missing column": "name,age,gender,address,mainCondition\nKim,82,F,Seoul,x\n",
		"bad age":        "name,age,gender,address,mainCondition,aiSchedule\nKim,old,F,Seoul,x,y\n",
		"ragged":         "name,age,gender,address,mainCondition,aiSchedule\nKim,82\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseCSV(strings.NewReader(doc))
			assert.True(t, apperror.Is(err, apperror.KindInvalid), "got %v", err)
		})
	}
}

func TestParseCSV_HeaderOnly(t *testing.T) {
	rows, err := ParseCSV(strings.NewReader("name,age,gender,address,mainCondition,aiSchedule\n"))
	require.NoError(t, err)
	assert.Empty(t, rows)
}
