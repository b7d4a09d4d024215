// Package brainage implements a brain age prediction study pipeline:
// regression models estimating chronological age from structural MRI
// features, evaluated with repeated cross-validation, cross-scanner
// generalisation tests and bootstrap sample-size analyses.
//
// # Quick Start
//
// Fit a Gaussian process on TIV-normalised FreeSurfer volumes:
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/brainage/preprocessing"
//	    "github.com/YuminosukeSato/brainage/regressors/gpr"
//	    "gonum.org/v1/gonum/mat"
//	)
//
//	func main() {
//	    X := mat.NewDense(4, 2, []float64{0.1, 0.4, 0.2, 0.5, 0.3, 0.6, 0.4, 0.7})
//	    y := mat.NewVecDense(4, []float64{52, 58, 63, 71})
//
//	    scaler := preprocessing.NewRobustScaler()
//	    Xs, err := scaler.FitTransform(X)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    reg := gpr.New()
//	    if err := reg.Fit(Xs, y); err != nil {
//	        log.Fatal(err)
//	    }
//	    pred, err := reg.Predict(Xs)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(mat.Formatted(pred.T()))
//	}
//
// # Packages
//
//   - regressors/svr, regressors/gpr, regressors/rvm: the age regressors
//   - preprocessing: robust and standard feature scaling
//   - modelselection: K-fold splitting and the SVR C grid search
//   - metrics: regression scores and the age/error correlation
//   - kernel: precomputed Gram matrices keyed by subject ID
//   - dataset: participants, FreeSurfer and ID file loading
//   - npy: NumPy-compatible score artifacts
//   - experiment: the pipeline stages behind the brainage CLI
//   - imd: deprivation-index correlation analysis
package brainage
