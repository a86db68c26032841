package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"primesum/internal/classify"
)

func (a *app) newInspectCmd() *cobra.Command {
	var bases []int64
	cmd := &cobra.Command{
		Use:   "inspect [n]",
		Short: "Show the digits, digit sum and classification of one integer",
		Long: `Decomposes n in each requested base and classifies its digit sum.

Example:
  primesum inspect 383 --bases 2,7,10`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.ParseInt(strings.ReplaceAll(args[0], "_", ""), 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer %q: %w", args[0], err)
			}
			if n < 0 {
				return fmt.Errorf("n must be non-negative, got %d", n)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d is %s\n", n, primeWord(n))
			for _, base := range bases {
				digits, err := classify.Digits(n, base)
				if err != nil {
					return err
				}
				sum, err := classify.DigitSum(n, base)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "base %d: digits %s, S_%d = %d (%s)\n",
					base, formatDigits(digits), base, sum, classify.Classify(sum))
			}
			return nil
		},
	}
	cmd.Flags().Int64SliceVarP(&bases, "bases", "b", []int64{7}, "bases to decompose in")
	return cmd
}

func primeWord(n int64) string {
	if classify.IsPrime(n) {
		return "prime"
	}
	return "not prime"
}

// formatDigits prints most significant digit first.
func formatDigits(digits []int64) string {
	parts := make([]string, len(digits))
	for i, d := range digits {
		parts[len(digits)-1-i] = strconv.FormatInt(d, 10)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
