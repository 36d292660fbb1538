// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package approvalvoting

//go:generate mockgen -destination=mock_criteria_test.go -package=$GOPACKAGE . AssignmentCriteria
