package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ukaji3/xltable-go/pkg/xltable/models"
)

func TestDataBounds(t *testing.T) {
	rows := []models.Row{
		{Index: 0, Cells: []models.Cell{{Value: ""}, {Value: "b"}, {Value: ""}}},
		{Index: 2, Cells: []models.Cell{{Value: ""}, {Value: ""}, {Value: "x"}}},
		{Index: 5, Cells: []models.Cell{{Value: ""}, {Value: ""}, {Value: ""}}},
	}

	assert.Equal(t, &models.Range{R1: 1, C1: 2, R2: 3, C2: 3}, DataBounds(rows))
}

func TestDataBoundsEmpty(t *testing.T) {
	assert.Nil(t, DataBounds(nil))
	assert.Nil(t, DataBounds([]models.Row{{Index: 0, Cells: []models.Cell{{}}}}))
}
