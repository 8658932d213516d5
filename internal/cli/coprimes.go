package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/okian/detbench/internal/domain/coprime"
)

func newCoprimesCommand(s *session) *cobra.Command {
	var n, count int
	cmd := &cobra.Command{
		Use:   "coprimes",
		Short: "Print the first roots coprime to n",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			roots, err := coprime.Roots(n, count)
			if err != nil {
				return err
			}
			parts := make([]string, len(roots))
			for i, r := range roots {
				parts[i] = strconv.Itoa(r)
			}
			_, err = fmt.Fprintln(s.out, strings.Join(parts, " "))
			return err
		},
	}
	cmd.Flags().IntVarP(&n, "n", "n", 0, "Modulus, usually the sequence length")
	cmd.Flags().IntVarP(&count, "count", "c", 4, "Number of roots")
	_ = cmd.MarkFlagRequired("n")
	return cmd
}
